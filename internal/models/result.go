package models

import (
	"encoding/json"
	"time"
)

type Result struct {
	ID           string         `json:"id" db:"id"`
	AssessmentID string         `json:"assessment_id" db:"assessment_id"`
	Kind         AssessmentKind `json:"kind" db:"kind"`
	UserID       string         `json:"user_id" db:"user_id"`
	Score        float64        `json:"score" db:"score"`
	Answers      Answers        `json:"-" db:"answers"`
	Feedback     *string        `json:"feedback,omitempty" db:"feedback"`
	GradedBy     *string        `json:"graded_by,omitempty" db:"graded_by"`
	GradedAt     *time.Time     `json:"graded_at,omitempty" db:"graded_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result

	answers, err := EncodeAnswers(r.Answers)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		plain
		Answers json.RawMessage `json:"answers"`
	}{
		plain:   plain(r),
		Answers: answers,
	})
}

// IsEssay reports whether the result carries an uploaded essay.
func (r *Result) IsEssay() bool {
	return r.Answers != nil && r.Answers.Type() == AnswerTypeEssay
}

type SubmitResult struct {
	ResultID string `json:"result_id"`
	Created  bool   `json:"created"`
	Redirect string `json:"redirect"`
}
