package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Coverage maps a peril to the benefit paid out for it
type Coverage map[string]string

// defaultCoverage is the fixed schedule attached to every activated policy
var defaultCoverage = Coverage{
	"Medical Emergency":   "Up to ₹50,000",
	"Legal Aid":           "Free consultation + ₹25,000 support",
	"Accident Protection": "Up to ₹1,00,000",
	"Harassment Support":  "24/7 hotline + legal aid",
}

// DefaultCoverage returns a copy of the fixed coverage schedule
func DefaultCoverage() Coverage {
	return maps.Clone(defaultCoverage)
}

// Value implements driver.Valuer, storing coverage as JSON text
func (c Coverage) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(c))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal coverage: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *Coverage) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported coverage type %T", src)
	}

	out := Coverage{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to unmarshal coverage: %w", err)
	}
	*c = out
	return nil
}

// SafetyPolicy is the coverage record activated when a job is assigned.
// Exactly one policy exists per assignment; JobID is unique across policies.
type SafetyPolicy struct {
	PolicyID    string    `db:"policy_id" json:"policy_id"`
	JobID       string    `db:"job_id" json:"job_id"`
	JobTitle    string    `db:"job_title" json:"job_title"`
	WorkerID    string    `db:"worker_id" json:"worker_id"`
	WorkerName  string    `db:"worker_name" json:"worker_name"`
	FeePaid     float64   `db:"fee_paid" json:"fee_paid"`
	Coverage    Coverage  `db:"coverage" json:"coverage"`
	ActivatedAt time.Time `db:"activated_at" json:"activated_at"`
	Status      string    `db:"status" json:"status"`
}
