package service

import (
	"context"
	"fmt"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

// Authorizer answers every "may this user act on this server" question.
// Membership is read from the store on each call.
type Authorizer interface {
	// RequireActive returns the caller's ACTIVE membership of serverID.
	RequireActive(ctx context.Context, userID, serverID string) (*models.Member, error)
	// Require additionally demands one of roles. No roles means any role.
	Require(ctx context.Context, userID, serverID string, roles ...models.MemberRole) (*models.Member, error)
}

type authorizer struct {
	serverRepo repository.ServerRepository
	memberRepo repository.MemberRepository
}

func NewAuthorizer(serverRepo repository.ServerRepository, memberRepo repository.MemberRepository) Authorizer {
	return &authorizer{
		serverRepo: serverRepo,
		memberRepo: memberRepo,
	}
}

func (a *authorizer) RequireActive(ctx context.Context, userID, serverID string) (*models.Member, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	server, err := a.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return nil, ErrServerNotFound
	}

	member, err := a.memberRepo.GetByServerAndProfile(ctx, serverID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if member == nil {
		return nil, ErrNotMember
	}

	switch member.Status {
	case models.MemberStatusActive:
		return member, nil
	case models.MemberStatusPending:
		return nil, &RedirectError{Err: ErrMembershipPending, Route: models.MemberRoute(serverID, member.Status)}
	case models.MemberStatusRejected:
		return nil, &RedirectError{Err: ErrMembershipRejected, Route: models.MemberRoute(serverID, member.Status)}
	default:
		return nil, ErrNotMember
	}
}

func (a *authorizer) Require(ctx context.Context, userID, serverID string, roles ...models.MemberRole) (*models.Member, error) {
	member, err := a.RequireActive(ctx, userID, serverID)
	if err != nil {
		return nil, err
	}

	if len(roles) > 0 && !member.HasRole(roles...) {
		return nil, ErrInsufficientRole
	}

	return member, nil
}
