package domain

import (
	"encoding/json"
	"time"
)

// User is a worker or employer profile. Rating and SafetyScore stay nil
// until the first rating or safety review lands.
type User struct {
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Role          string    `db:"role" json:"role"`
	Verified      bool      `db:"verified" json:"verified"`
	CompletedJobs int       `db:"completed_jobs" json:"completed_jobs"`
	Rating        *float64  `db:"rating" json:"rating,omitempty"`
	TotalRatings  int       `db:"total_ratings" json:"total_ratings"`
	SafetyScore   *int      `db:"safety_score" json:"safety_score,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Rating is one user's 1-5 review of another for a job
type Rating struct {
	RatingID  string    `db:"rating_id" json:"rating_id"`
	JobID     string    `db:"job_id" json:"job_id"`
	RaterID   string    `db:"rater_id" json:"rater_id"`
	RateeID   string    `db:"ratee_id" json:"ratee_id"`
	Score     int       `db:"score" json:"rating"`
	Review    string    `db:"review" json:"review,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SOSAlert is an emergency notification raised by a worker. Alerts are
// recorded only; nothing dispatches them.
type SOSAlert struct {
	AlertID       string    `db:"alert_id" json:"alert_id"`
	WorkerID      string    `db:"worker_id" json:"worker_id"`
	WorkerName    string    `db:"worker_name" json:"worker_name"`
	Location      string    `db:"location" json:"location"`
	EmergencyType string    `db:"emergency_type" json:"emergency_type"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Scheme is a government welfare scheme entry
type Scheme struct {
	SchemeID     string    `db:"scheme_id" json:"scheme_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Category     string    `db:"category" json:"category"`
	Eligibility  string    `db:"eligibility" json:"eligibility"`
	Benefits     string    `db:"benefits" json:"benefits"`
	HowToApply   string    `db:"how_to_apply" json:"how_to_apply"`
	ExternalLink *string   `db:"external_link" json:"external_link,omitempty"`
	State        *string   `db:"state" json:"state,omitempty"`
	Icon         string    `db:"icon" json:"icon"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ImpactStats is the platform-wide rollup shown on the impact page
type ImpactStats struct {
	TotalWorkers      int `db:"total_workers" json:"total_workers"`
	TotalEmployers    int `db:"total_employers" json:"total_employers"`
	TotalJobs         int `db:"total_jobs" json:"total_jobs"`
	PoliciesActivated int `db:"policies_activated" json:"policies_activated"`
	SOSResponded      int `db:"sos_responded" json:"sos_responded"`
}

// MarshalBinary implements encoding.BinaryMarshaler for caching
func (s ImpactStats) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (s *ImpactStats) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}
