package domain

// Job status constants
const (
	JobStatusOpen      = "open"
	JobStatusAssigned  = "assigned"
	JobStatusCompleted = "completed"
)

// Safety policy status constants
const (
	PolicyStatusActive  = "active"
	PolicyStatusExpired = "expired"
	PolicyStatusUsed    = "used"
)

// User role constants
const (
	RoleWorker   = "worker"
	RoleEmployer = "employer"
)

// SOSStatusTriggered is the only state an alert is recorded in.
const SOSStatusTriggered = "triggered"

const (
	// DefaultMinTrustScore is the eligibility threshold applied when a job sets none
	DefaultMinTrustScore = 40

	// DefaultSafetyFee is charged on assignment when a job carries no fee of its own
	DefaultSafetyFee = 2.0

	// DefaultDuration is stored for jobs posted without a duration
	DefaultDuration = "Not specified"
)

// IsValidRole reports whether role is one a profile can be created with
func IsValidRole(role string) bool {
	return role == RoleWorker || role == RoleEmployer
}

// IsValidJobStatus reports whether status is a known job lifecycle status
func IsValidJobStatus(status string) bool {
	switch status {
	case JobStatusOpen, JobStatusAssigned, JobStatusCompleted:
		return true
	}
	return false
}
