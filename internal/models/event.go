package models

type SubmissionCreatedEvent struct {
	ResultID     string `json:"result_id"`
	AssessmentID string `json:"assessment_id"`
	UserID       string `json:"user_id"`
	Kind         string `json:"kind"`
	AnswerType   string `json:"answer_type"`
	FileURL      string `json:"file_url,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// ResultGradedEvent is produced by an external grader once it has scored a
// submission.
type ResultGradedEvent struct {
	ResultID string  `json:"result_id"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	GraderID string  `json:"grader_id"`
}
