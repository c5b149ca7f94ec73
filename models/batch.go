package models

// BatchResponse is the immediate response for POST /api/v1/rank/async.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/rank/:id.
type BatchStatusResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Topic     string        `json:"topic"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Result    *RankResponse `json:"result,omitempty"`
}

// Batch job states.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobNoContent  = "no_content"
	JobFailed     = "failed"
)

// BatchJob tracks an in-progress async rank operation.
type BatchJob struct {
	ID        string
	Status    string
	Topic     string
	Total     int
	Completed int
	Result    *RankResponse
	CreatedAt int64 // unix timestamp
}
