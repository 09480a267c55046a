package models

import (
	"encoding/json"
	"io"
	"time"
)

// Data Transfer Objects

type CreateProfileRequest struct {
	Name  string `json:"name" validate:"required,notblank,min=2,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type CreateServerRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2,max=100"`
	IsPublic bool   `json:"is_public"`
}

type CreateChannelRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

type AddMemberRequest struct {
	ProfileID string `json:"profile_id" validate:"required,uuid"`
	Role      string `json:"role" validate:"omitempty,oneof=ADMIN MODERATOR GUEST"`
}

type RejectMemberRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MODERATOR GUEST"`
}

type CreateAssessmentRequest struct {
	Kind            string     `json:"kind" validate:"required,oneof=exam exercise"`
	Name            string     `json:"name" validate:"required,min=2,max=255"`
	QuestionCount   int        `json:"question_count" validate:"min=0,max=500"`
	Deadline        *time.Time `json:"deadline"`
	AllowReferences bool       `json:"allow_references"`
	Shuffle         bool       `json:"shuffle"`
}

type UpdateAssessmentSettingsRequest struct {
	IsActive        *bool      `json:"is_active"`
	AllowReferences *bool      `json:"allow_references"`
	Shuffle         *bool      `json:"shuffle"`
	Deadline        *time.Time `json:"deadline"`
	ClearDeadline   bool       `json:"clear_deadline"`
}

// SubmitRequest carries a JSON submission. Answers is the encoded tagged
// variant; Score may be a number, a numeric string or absent.
type SubmitRequest struct {
	AssessmentID string          `json:"-"`
	UserID       string          `json:"-"`
	Answers      json.RawMessage `json:"answers"`
	Score        interface{}     `json:"score"`
}

type EssaySubmitRequest struct {
	AssessmentID string    `json:"-"`
	UserID       string    `json:"-"`
	FileName     string    `json:"file_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Content      io.Reader `json:"-"`
}

type GradeRequest struct {
	Score    *float64 `json:"score" validate:"required,min=0,max=10"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}
