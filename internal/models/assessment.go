package models

import (
	"time"
)

type AssessmentKind string

const (
	AssessmentKindExam     AssessmentKind = "exam"
	AssessmentKindExercise AssessmentKind = "exercise"
)

func (k AssessmentKind) String() string {
	return string(k)
}

type Assessment struct {
	ID              string         `json:"id" db:"id"`
	Kind            AssessmentKind `json:"kind" db:"kind"`
	Name            string         `json:"name" db:"name"`
	ChannelID       string         `json:"channel_id" db:"channel_id"`
	ServerID        string         `json:"server_id" db:"server_id"` // joined from channels
	IsActive        bool           `json:"is_active" db:"is_active"`
	AllowReferences bool           `json:"allow_references" db:"allow_references"`
	Shuffle         bool           `json:"shuffle" db:"shuffle"`
	Deadline        *time.Time     `json:"deadline,omitempty" db:"deadline"`
	QuestionCount   int            `json:"question_count" db:"question_count"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

func (a *Assessment) DeadlinePassed(now time.Time) bool {
	return a.Deadline != nil && !now.Before(*a.Deadline)
}
