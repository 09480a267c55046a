package models

import (
	"fmt"
	"time"
)

type MemberRole string

const (
	MemberRoleAdmin     MemberRole = "ADMIN"
	MemberRoleModerator MemberRole = "MODERATOR"
	MemberRoleGuest     MemberRole = "GUEST"
)

func (r MemberRole) String() string {
	return string(r)
}

func IsValidMemberRole(role string) bool {
	switch MemberRole(role) {
	case MemberRoleAdmin, MemberRoleModerator, MemberRoleGuest:
		return true
	default:
		return false
	}
}

// StaffRoles may manage membership, grading and statistics of a server.
var StaffRoles = []MemberRole{MemberRoleAdmin, MemberRoleModerator}

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusPending  MemberStatus = "PENDING"
	MemberStatusRejected MemberStatus = "REJECTED"
)

func (s MemberStatus) String() string {
	return string(s)
}

func IsValidMemberStatus(status string) bool {
	switch MemberStatus(status) {
	case MemberStatusActive, MemberStatusPending, MemberStatusRejected:
		return true
	default:
		return false
	}
}

type Member struct {
	ID           string       `json:"id" db:"id"`
	ServerID     string       `json:"server_id" db:"server_id"`
	ProfileID    string       `json:"profile_id" db:"profile_id"`
	Role         MemberRole   `json:"role" db:"role"`
	Status       MemberStatus `json:"status" db:"status"`
	RequestedAt  *time.Time   `json:"requested_at,omitempty" db:"requested_at"`
	ApprovedAt   *time.Time   `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy   *string      `json:"approved_by,omitempty" db:"approved_by"`
	RejectedAt   *time.Time   `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectReason *string      `json:"reject_reason,omitempty" db:"reject_reason"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

func (m *Member) HasRole(roles ...MemberRole) bool {
	for _, role := range roles {
		if m.Role == role {
			return true
		}
	}
	return false
}

type MemberWithProfile struct {
	Member
	ProfileName  string `json:"profile_name" db:"profile_name"`
	ProfileEmail string `json:"profile_email" db:"profile_email"`
}

// MemberRoute is the page a user with the given membership status is sent to.
func MemberRoute(serverID string, status MemberStatus) string {
	switch status {
	case MemberStatusPending:
		return fmt.Sprintf("/servers/%s/pending", serverID)
	case MemberStatusRejected:
		return fmt.Sprintf("/servers/%s/rejected", serverID)
	default:
		return fmt.Sprintf("/servers/%s", serverID)
	}
}

// RedeemResult describes the outcome of an invite redemption.
type RedeemResult struct {
	Server  *Server `json:"-"`
	Member  *Member `json:"member"`
	Created bool    `json:"created"`
	Route   string  `json:"redirect"`
}
