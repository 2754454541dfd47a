package handler

import (
	"log/slog"
	"time"

	"github.com/cuongbtq/swayam-be/internal/cache"
	"github.com/cuongbtq/swayam-be/internal/marketplace"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger          *slog.Logger
	Storage         *storage.Storage
	Marketplace     *marketplace.Service
	Cache           cache.Cache
	StatsTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

func (d *Dependencies) pageSizes() (int, int) {
	def, limit := d.DefaultPageSize, d.MaxPageSize
	if def <= 0 {
		def = defaultPageSize
	}
	if limit <= 0 {
		limit = maxPageSize
	}
	return def, limit
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger          *slog.Logger
	storage         *storage.Storage
	marketplace     *marketplace.Service
	defaultPageSize int
	maxPageSize     int
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	def, limit := deps.pageSizes()
	return &JobHandler{
		logger:          deps.Logger,
		storage:         deps.Storage,
		marketplace:     deps.Marketplace,
		defaultPageSize: def,
		maxPageSize:     limit,
	}
}

// UserHandler handles profiles, trust scores and ratings
type UserHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(deps *Dependencies) *UserHandler {
	return &UserHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

// SafetyHandler handles safety policies and SOS alerts
type SafetyHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
}

// NewSafetyHandler creates a new SafetyHandler instance
func NewSafetyHandler(deps *Dependencies) *SafetyHandler {
	return &SafetyHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

// SchemeHandler serves the government scheme catalogue
type SchemeHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
}

// NewSchemeHandler creates a new SchemeHandler instance
func NewSchemeHandler(deps *Dependencies) *SchemeHandler {
	return &SchemeHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

// StatsHandler serves cached platform statistics
type StatsHandler struct {
	logger   *slog.Logger
	storage  *storage.Storage
	cache    cache.Cache
	statsTTL time.Duration
	tracer   trace.Tracer
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(deps *Dependencies) *StatsHandler {
	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}
	return &StatsHandler{
		logger:   deps.Logger,
		storage:  deps.Storage,
		cache:    c,
		statsTTL: deps.StatsTTL,
		tracer:   telemetry.GetTracer("swayam/api/stats"),
	}
}
