package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/validation"
)

var ErrInvalidMemberStatus = newError(ErrInvalidInput, "unknown member status")

type MembershipService interface {
	RedeemInvite(ctx context.Context, inviteCode, userID string) (*models.RedeemResult, error)
	Approve(ctx context.Context, callerID, serverID, memberID string) (*models.Member, error)
	Reject(ctx context.Context, callerID, serverID, memberID, reason string) (*models.Member, error)
	RequireActive(ctx context.Context, userID, serverID string) (*models.Member, error)
	AddMember(ctx context.Context, callerID, serverID string, req *models.AddMemberRequest) (*models.Member, error)
	RemoveMember(ctx context.Context, callerID, serverID, memberID string) error
	Leave(ctx context.Context, userID, serverID string) error
	UpdateRole(ctx context.Context, callerID, serverID, memberID string, req *models.UpdateRoleRequest) (*models.Member, error)
	ListMembers(ctx context.Context, callerID, serverID, status string) ([]models.MemberWithProfile, error)
}

type membershipService struct {
	serverRepo  repository.ServerRepository
	memberRepo  repository.MemberRepository
	profileRepo repository.ProfileRepository
	authz       Authorizer
	logger      zerolog.Logger
	now         func() time.Time
}

func NewMembershipService(
	serverRepo repository.ServerRepository,
	memberRepo repository.MemberRepository,
	profileRepo repository.ProfileRepository,
	authz Authorizer,
	logger zerolog.Logger,
) MembershipService {
	return &membershipService{
		serverRepo:  serverRepo,
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
		authz:       authz,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *membershipService) RedeemInvite(ctx context.Context, inviteCode, userID string) (*models.RedeemResult, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	server, err := s.serverRepo.GetByInviteCode(ctx, strings.TrimSpace(inviteCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get server by invite code: %w", err)
	}
	if server == nil {
		return nil, ErrInviteNotFound
	}

	existing, err := s.memberRepo.GetByServerAndProfile(ctx, server.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if existing != nil {
		return redeemed(server, existing, false), nil
	}

	now := s.now().UTC()
	member := &models.Member{
		ID:        uuid.New().String(),
		ServerID:  server.ID,
		ProfileID: userID,
		Role:      models.MemberRoleGuest,
		Status:    models.MemberStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !server.IsPublic {
		member.Status = models.MemberStatusPending
		member.RequestedAt = &now
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create member: %w", err)
		}

		// A concurrent redemption won the insert; route by its record.
		existing, err := s.memberRepo.GetByServerAndProfile(ctx, server.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get membership: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("membership vanished after duplicate insert for server %s", server.ID)
		}
		return redeemed(server, existing, false), nil
	}

	s.logger.Info().
		Str("server_id", server.ID).
		Str("profile_id", userID).
		Str("status", member.Status.String()).
		Msg("Invite redeemed")

	return redeemed(server, member, true), nil
}

func redeemed(server *models.Server, member *models.Member, created bool) *models.RedeemResult {
	return &models.RedeemResult{
		Server:  server,
		Member:  member,
		Created: created,
		Route:   models.MemberRoute(server.ID, member.Status),
	}
}

func (s *membershipService) RequireActive(ctx context.Context, userID, serverID string) (*models.Member, error) {
	return s.authz.RequireActive(ctx, userID, serverID)
}

// targetMember loads memberID and checks it belongs to serverID.
func (s *membershipService) targetMember(ctx context.Context, serverID, memberID string) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil || member.ServerID != serverID {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (s *membershipService) isOwner(ctx context.Context, serverID, profileID string) (bool, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return false, fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return false, ErrServerNotFound
	}
	return server.OwnerID == profileID, nil
}

func (s *membershipService) Approve(ctx context.Context, callerID, serverID, memberID string) (*models.Member, error) {
	if _, err := s.authz.Require(ctx, callerID, serverID, models.StaffRoles...); err != nil {
		return nil, err
	}

	member, err := s.targetMember(ctx, serverID, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberStatusPending {
		return nil, ErrMemberNotPending
	}

	now := s.now().UTC()
	member.Status = models.MemberStatusActive
	member.ApprovedAt = &now
	member.ApprovedBy = &callerID
	member.UpdatedAt = now

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to approve member: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("member_id", memberID).
		Str("approved_by", callerID).
		Msg("Member approved")

	return member, nil
}

func (s *membershipService) Reject(ctx context.Context, callerID, serverID, memberID, reason string) (*models.Member, error) {
	caller, err := s.authz.Require(ctx, callerID, serverID, models.StaffRoles...)
	if err != nil {
		return nil, err
	}

	member, err := s.targetMember(ctx, serverID, memberID)
	if err != nil {
		return nil, err
	}

	owner, err := s.isOwner(ctx, serverID, member.ProfileID)
	if err != nil {
		return nil, err
	}
	if owner {
		return nil, ErrOwnerProtected
	}
	if member.Role == models.MemberRoleAdmin && caller.Role != models.MemberRoleAdmin {
		return nil, ErrInsufficientRole
	}
	if member.Status == models.MemberStatusRejected {
		return nil, ErrMemberAlreadyRejected
	}

	now := s.now().UTC()
	member.Status = models.MemberStatusRejected
	member.RejectedAt = &now
	member.RejectReason = nil
	if reason = strings.TrimSpace(reason); reason != "" {
		member.RejectReason = &reason
	}
	member.UpdatedAt = now

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to reject member: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("member_id", memberID).
		Str("rejected_by", callerID).
		Msg("Member rejected")

	return member, nil
}

func (s *membershipService) AddMember(ctx context.Context, callerID, serverID string, req *models.AddMemberRequest) (*models.Member, error) {
	caller, err := s.authz.Require(ctx, callerID, serverID, models.StaffRoles...)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	role := models.MemberRoleGuest
	if req.Role != "" {
		role = models.MemberRole(req.Role)
	}
	if role == models.MemberRoleAdmin && caller.Role != models.MemberRoleAdmin {
		return nil, ErrInsufficientRole
	}

	exists, err := s.profileRepo.Exists(ctx, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}
	if !exists {
		return nil, ErrProfileNotFound
	}

	now := s.now().UTC()
	member := &models.Member{
		ID:         uuid.New().String(),
		ServerID:   serverID,
		ProfileID:  req.ProfileID,
		Role:       role,
		Status:     models.MemberStatusActive,
		ApprovedAt: &now,
		ApprovedBy: &callerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("profile_id", req.ProfileID).
		Str("role", role.String()).
		Msg("Member added")

	return member, nil
}

func (s *membershipService) RemoveMember(ctx context.Context, callerID, serverID, memberID string) error {
	caller, err := s.authz.Require(ctx, callerID, serverID, models.StaffRoles...)
	if err != nil {
		return err
	}

	member, err := s.targetMember(ctx, serverID, memberID)
	if err != nil {
		return err
	}

	owner, err := s.isOwner(ctx, serverID, member.ProfileID)
	if err != nil {
		return err
	}
	if owner {
		return ErrOwnerProtected
	}
	if member.Role == models.MemberRoleAdmin && caller.Role != models.MemberRoleAdmin {
		return ErrInsufficientRole
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("member_id", memberID).
		Str("removed_by", callerID).
		Msg("Member removed")

	return nil
}

func (s *membershipService) Leave(ctx context.Context, userID, serverID string) error {
	if userID == "" {
		return ErrMissingIdentity
	}

	owner, err := s.isOwner(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if owner {
		return ErrOwnerProtected
	}

	member, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, userID)
	if err != nil {
		return fmt.Errorf("failed to get membership: %w", err)
	}
	if member == nil {
		return ErrNotMember
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return fmt.Errorf("failed to leave server: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("profile_id", userID).
		Msg("Member left server")

	return nil
}

func (s *membershipService) UpdateRole(ctx context.Context, callerID, serverID, memberID string, req *models.UpdateRoleRequest) (*models.Member, error) {
	if _, err := s.authz.Require(ctx, callerID, serverID, models.MemberRoleAdmin); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	member, err := s.targetMember(ctx, serverID, memberID)
	if err != nil {
		return nil, err
	}

	member.Role = models.MemberRole(req.Role)
	member.UpdatedAt = s.now().UTC()

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("member_id", memberID).
		Str("role", req.Role).
		Msg("Member role updated")

	return member, nil
}

func (s *membershipService) ListMembers(ctx context.Context, callerID, serverID, status string) ([]models.MemberWithProfile, error) {
	if _, err := s.authz.Require(ctx, callerID, serverID, models.StaffRoles...); err != nil {
		return nil, err
	}

	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !models.IsValidMemberStatus(status) {
		return nil, ErrInvalidMemberStatus
	}

	members, err := s.memberRepo.ListByServer(ctx, serverID, models.MemberStatus(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}
