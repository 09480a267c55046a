package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type AnswerType string

const (
	AnswerTypeMultipleChoice AnswerType = "multiple_choice"
	AnswerTypeWritten        AnswerType = "written"
	AnswerTypeEssay          AnswerType = "essay"
)

// Answers is the submitted payload of a result. It is one of
// MultipleChoiceAnswers, WrittenAnswers or EssayAnswer.
type Answers interface {
	Type() AnswerType
	IsEmpty() bool
	isAnswers()
}

var (
	ErrUnknownAnswerType = errors.New("unknown answer type")
	ErrMalformedAnswers  = errors.New("malformed answers")
)

type Choice struct {
	QuestionID string `json:"question_id"`
	Option     string `json:"option"`
}

type MultipleChoiceAnswers struct {
	Choices []Choice `json:"choices"`
}

func (MultipleChoiceAnswers) Type() AnswerType { return AnswerTypeMultipleChoice }
func (MultipleChoiceAnswers) isAnswers()       {}

func (a MultipleChoiceAnswers) IsEmpty() bool {
	for _, c := range a.Choices {
		if strings.TrimSpace(c.Option) != "" {
			return false
		}
	}
	return true
}

type WrittenResponse struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

type WrittenAnswers struct {
	Responses []WrittenResponse `json:"responses"`
}

func (WrittenAnswers) Type() AnswerType { return AnswerTypeWritten }
func (WrittenAnswers) isAnswers()       {}

func (a WrittenAnswers) IsEmpty() bool {
	for _, r := range a.Responses {
		if strings.TrimSpace(r.Text) != "" {
			return false
		}
	}
	return true
}

type GradingStatus string

const (
	GradingStatusPending GradingStatus = "pending"
	GradingStatusGraded  GradingStatus = "graded"
)

type EssayFile struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type EssayAnswer struct {
	File        EssayFile     `json:"file"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Status      GradingStatus `json:"status"`
}

func (EssayAnswer) Type() AnswerType { return AnswerTypeEssay }
func (EssayAnswer) isAnswers()       {}

func (a EssayAnswer) IsEmpty() bool {
	return a.File.URL == "" && a.File.Key == ""
}

type answerEnvelope struct {
	Type AnswerType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodeAnswers serializes answers as {"type": ..., "data": ...}.
func EncodeAnswers(a Answers) ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	return json.Marshal(answerEnvelope{Type: a.Type(), Data: data})
}

// DecodeAnswers parses the output of EncodeAnswers.
func DecodeAnswers(raw []byte) (Answers, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var env answerEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedAnswers)
	}

	switch env.Type {
	case AnswerTypeMultipleChoice:
		var a MultipleChoiceAnswers
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
		}
		return a, nil
	case AnswerTypeWritten:
		var a WrittenAnswers
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
		}
		return a, nil
	case AnswerTypeEssay:
		var a EssayAnswer
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnswerType, env.Type)
	}
}
