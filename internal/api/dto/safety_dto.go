package dto

type TriggerSOSRequest struct {
	WorkerID      string `json:"worker_id" binding:"required"`
	WorkerName    string `json:"worker_name"`
	Location      string `json:"location" binding:"required"`
	EmergencyType string `json:"emergency_type" binding:"required"`
}

type ErrorResponse struct {
	Error              string `json:"error"`
	Kind               string `json:"kind,omitempty"`
	RequiredTrustScore *int   `json:"required_trust_score,omitempty"`
	TrustScore         *int   `json:"trust_score,omitempty"`
}
