package dto

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
	Role  string `json:"role" binding:"required,oneof=worker employer"`
}

type TrustScoreResponse struct {
	WorkerID      string   `json:"worker_id"`
	TrustScore    int      `json:"trust_score"`
	Reliability   string   `json:"reliability"`
	CompletedJobs int      `json:"completed_jobs"`
	Rating        *float64 `json:"rating,omitempty"`
	SafetyScore   *int     `json:"safety_score,omitempty"`
}

type CreateRatingRequest struct {
	JobID   string `json:"job_id" binding:"required"`
	RaterID string `json:"rater_id" binding:"required"`
	RateeID string `json:"ratee_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Review  string `json:"review" binding:"max=1000"`
}
