// Package seed loads the demo profiles, jobs and scheme catalogue.
// Running it again adds only what is missing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// jobNamespace derives stable job IDs so reruns find the jobs they made
var jobNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("swayam:seed:jobs"))

type UserFixture struct {
	Name   string   `yaml:"name"`
	Email  string   `yaml:"email"`
	Phone  string   `yaml:"phone"`
	Role   string   `yaml:"role"`
	Rating *float64 `yaml:"rating"`
}

type JobFixture struct {
	Title         string  `yaml:"title"`
	Category      string  `yaml:"category"`
	Description   string  `yaml:"description"`
	Location      string  `yaml:"location"`
	Pay           float64 `yaml:"pay"`
	Duration      string  `yaml:"duration"`
	EmployerEmail string  `yaml:"employer_email"`
	SafetyFee     float64 `yaml:"safety_fee"`
	MinTrustScore *int    `yaml:"min_trust_score"`
}

type SchemeFixture struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Category     string `yaml:"category"`
	Eligibility  string `yaml:"eligibility"`
	Benefits     string `yaml:"benefits"`
	HowToApply   string `yaml:"how_to_apply"`
	ExternalLink string `yaml:"external_link"`
	State        string `yaml:"state"`
	Icon         string `yaml:"icon"`
}

// Fixtures is the full seed data set
type Fixtures struct {
	Users   []UserFixture   `yaml:"users"`
	Jobs    []JobFixture    `yaml:"jobs"`
	Schemes []SchemeFixture `yaml:"schemes"`
}

// Summary counts what a run created
type Summary struct {
	Users   int
	Jobs    int
	Schemes int
}

// Parse decodes a fixtures document
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	for _, u := range f.Users {
		if !domain.IsValidRole(u.Role) {
			return nil, fmt.Errorf("user %s: invalid role %q", u.Email, u.Role)
		}
	}

	return &f, nil
}

// Default returns the built-in fixtures
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Seeder writes fixtures into a store
type Seeder struct {
	store  *storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewSeeder creates a Seeder
func NewSeeder(store *storage.Storage, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Run creates every fixture that does not exist yet
func (s *Seeder) Run(ctx context.Context, f *Fixtures) (*Summary, error) {
	summary := &Summary{}

	employers := make(map[string]*domain.User)
	for _, fixture := range f.Users {
		user, created, err := s.ensureUser(ctx, fixture)
		if err != nil {
			return nil, err
		}
		if created {
			summary.Users++
		}
		if user.Role == domain.RoleEmployer {
			employers[user.Email] = user
		}
	}

	for _, fixture := range f.Jobs {
		employer, ok := employers[strings.ToLower(fixture.EmployerEmail)]
		if !ok {
			return nil, fmt.Errorf("job %q: unknown employer %s", fixture.Title, fixture.EmployerEmail)
		}

		created, err := s.ensureJob(ctx, fixture, employer)
		if err != nil {
			return nil, err
		}
		if created {
			summary.Jobs++
		}
	}

	for _, fixture := range f.Schemes {
		created, err := s.store.UpsertScheme(ctx, schemeFrom(fixture, s.now()))
		if err != nil {
			return nil, fmt.Errorf("scheme %q: %w", fixture.Title, err)
		}
		if created {
			summary.Schemes++
		}
	}

	s.logger.Info("Seed complete",
		slog.Int("users_created", summary.Users),
		slog.Int("jobs_created", summary.Jobs),
		slog.Int("schemes_created", summary.Schemes),
	)

	return summary, nil
}

func (s *Seeder) ensureUser(ctx context.Context, fixture UserFixture) (*domain.User, bool, error) {
	email := strings.ToLower(fixture.Email)

	existing, err := s.store.FindUserByEmail(ctx, email, fixture.Role)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("user %s: %w", email, err)
	}

	user := &domain.User{
		UserID:    uuid.NewString(),
		Name:      fixture.Name,
		Email:     email,
		Phone:     fixture.Phone,
		Role:      fixture.Role,
		Verified:  true,
		Rating:    fixture.Rating,
		CreatedAt: s.now(),
	}
	if fixture.Rating != nil {
		user.TotalRatings = 1
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("user %s: %w", email, err)
	}

	return user, true, nil
}

func (s *Seeder) ensureJob(ctx context.Context, fixture JobFixture, employer *domain.User) (bool, error) {
	jobID := uuid.NewSHA1(jobNamespace, []byte(employer.Email+"|"+fixture.Title)).String()

	_, err := s.store.FindJob(ctx, jobID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("job %q: %w", fixture.Title, err)
	}

	safetyFee := fixture.SafetyFee
	if safetyFee == 0 {
		safetyFee = domain.DefaultSafetyFee
	}

	now := s.now()
	job := &domain.Job{
		JobID:         jobID,
		Title:         fixture.Title,
		Category:      fixture.Category,
		Description:   fixture.Description,
		Location:      fixture.Location,
		Pay:           fixture.Pay,
		Duration:      fixture.Duration,
		EmployerID:    employer.UserID,
		EmployerName:  employer.Name,
		Status:        domain.JobStatusOpen,
		SafetyFee:     safetyFee,
		MinTrustScore: fixture.MinTrustScore,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return false, fmt.Errorf("job %q: %w", fixture.Title, err)
	}

	return true, nil
}

func schemeFrom(f SchemeFixture, now time.Time) *domain.Scheme {
	optional := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}

	icon := f.Icon
	if icon == "" {
		icon = "shield"
	}

	return &domain.Scheme{
		SchemeID:     uuid.NewString(),
		Title:        f.Title,
		Description:  f.Description,
		Category:     f.Category,
		Eligibility:  f.Eligibility,
		Benefits:     f.Benefits,
		HowToApply:   f.HowToApply,
		ExternalLink: optional(f.ExternalLink),
		State:        optional(f.State),
		Icon:         icon,
		CreatedAt:    now,
	}
}
