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

const inviteCodeAttempts = 3

type ServerService interface {
	CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error)
	GetClassroom(ctx context.Context, userID, serverID string) (*models.Classroom, error)
	RegenerateInviteCode(ctx context.Context, userID, serverID string) (*models.Server, error)
	ListChannels(ctx context.Context, userID, serverID string) ([]models.Channel, error)
	CreateChannel(ctx context.Context, userID, serverID string, req *models.CreateChannelRequest) (*models.Channel, error)
}

type serverService struct {
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
	profileRepo repository.ProfileRepository
	authz       Authorizer
	logger      zerolog.Logger
	now         func() time.Time
}

func NewServerService(
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	profileRepo repository.ProfileRepository,
	authz Authorizer,
	logger zerolog.Logger,
) ServerService {
	return &serverService{
		serverRepo:  serverRepo,
		channelRepo: channelRepo,
		profileRepo: profileRepo,
		authz:       authz,
		logger:      logger,
		now:         time.Now,
	}
}

func newInviteCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}

func (s *serverService) CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error) {
	if ownerID == "" {
		return nil, ErrMissingIdentity
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	exists, err := s.profileRepo.Exists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}
	if !exists {
		return nil, ErrProfileNotFound
	}

	now := s.now().UTC()
	server := &models.Server{
		ID:        uuid.New().String(),
		Name:      req.Name,
		OwnerID:   ownerID,
		IsPublic:  req.IsPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &models.Member{
		ID:         uuid.New().String(),
		ServerID:   server.ID,
		ProfileID:  ownerID,
		Role:       models.MemberRoleAdmin,
		Status:     models.MemberStatusActive,
		ApprovedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	channel := &models.Channel{
		ID:        uuid.New().String(),
		ServerID:  server.ID,
		Name:      models.DefaultChannelName,
		CreatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		server.InviteCode = newInviteCode()
		err = s.serverRepo.CreateWithOwner(ctx, server, owner, channel)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == inviteCodeAttempts {
			return nil, fmt.Errorf("failed to create server: %w", err)
		}
	}

	s.logger.Info().
		Str("server_id", server.ID).
		Str("owner_id", ownerID).
		Bool("public", server.IsPublic).
		Msg("Server created")

	return server, nil
}

func (s *serverService) GetClassroom(ctx context.Context, userID, serverID string) (*models.Classroom, error) {
	member, err := s.authz.RequireActive(ctx, userID, serverID)
	if err != nil {
		return nil, err
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return nil, ErrServerNotFound
	}

	channels, err := s.channelRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	// Guests never see the invite code.
	if !member.HasRole(models.StaffRoles...) {
		server.InviteCode = ""
	}

	return &models.Classroom{
		Server:   *server,
		Channels: channels,
		Role:     member.Role.String(),
	}, nil
}

func (s *serverService) RegenerateInviteCode(ctx context.Context, userID, serverID string) (*models.Server, error) {
	if _, err := s.authz.Require(ctx, userID, serverID, models.MemberRoleAdmin); err != nil {
		return nil, err
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return nil, ErrServerNotFound
	}

	now := s.now().UTC()
	for attempt := 1; ; attempt++ {
		code := newInviteCode()
		err := s.serverRepo.UpdateInviteCode(ctx, serverID, code, now)
		if err == nil {
			server.InviteCode = code
			server.UpdatedAt = now
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == inviteCodeAttempts {
			return nil, fmt.Errorf("failed to update invite code: %w", err)
		}
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("user_id", userID).
		Msg("Invite code regenerated")

	return server, nil
}

func (s *serverService) ListChannels(ctx context.Context, userID, serverID string) ([]models.Channel, error) {
	if _, err := s.authz.RequireActive(ctx, userID, serverID); err != nil {
		return nil, err
	}

	channels, err := s.channelRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	return channels, nil
}

func (s *serverService) CreateChannel(ctx context.Context, userID, serverID string, req *models.CreateChannelRequest) (*models.Channel, error) {
	if _, err := s.authz.Require(ctx, userID, serverID, models.StaffRoles...); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	channel := &models.Channel{
		ID:        uuid.New().String(),
		ServerID:  serverID,
		Name:      req.Name,
		CreatedAt: s.now().UTC(),
	}

	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	s.logger.Info().
		Str("server_id", serverID).
		Str("channel_id", channel.ID).
		Msg("Channel created")

	return channel, nil
}
