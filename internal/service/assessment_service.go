package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/validation"
)

type AssessmentService interface {
	CreateAssessment(ctx context.Context, userID, channelID string, req *models.CreateAssessmentRequest) (*models.Assessment, error)
	ListAssessments(ctx context.Context, userID, channelID string) ([]models.Assessment, error)
	GetAssessment(ctx context.Context, userID, assessmentID string) (*models.Assessment, error)
	UpdateSettings(ctx context.Context, userID, assessmentID string, req *models.UpdateAssessmentSettingsRequest) (*models.Assessment, error)
}

type assessmentService struct {
	channelRepo    repository.ChannelRepository
	assessmentRepo repository.AssessmentRepository
	authz          Authorizer
	logger         zerolog.Logger
	now            func() time.Time
}

func NewAssessmentService(
	channelRepo repository.ChannelRepository,
	assessmentRepo repository.AssessmentRepository,
	authz Authorizer,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentService{
		channelRepo:    channelRepo,
		assessmentRepo: assessmentRepo,
		authz:          authz,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *assessmentService) channel(ctx context.Context, channelID string) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	return channel, nil
}

func (s *assessmentService) assessment(ctx context.Context, assessmentID string) (*models.Assessment, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	return assessment, nil
}

func (s *assessmentService) CreateAssessment(ctx context.Context, userID, channelID string, req *models.CreateAssessmentRequest) (*models.Assessment, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	channel, err := s.channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Require(ctx, userID, channel.ServerID, models.StaffRoles...); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	now := s.now().UTC()
	assessment := &models.Assessment{
		ID:              uuid.New().String(),
		Kind:            models.AssessmentKind(req.Kind),
		Name:            req.Name,
		ChannelID:       channel.ID,
		ServerID:        channel.ServerID,
		IsActive:        true,
		AllowReferences: req.AllowReferences,
		Shuffle:         req.Shuffle,
		Deadline:        req.Deadline,
		QuestionCount:   req.QuestionCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info().
		Str("assessment_id", assessment.ID).
		Str("channel_id", channel.ID).
		Str("kind", assessment.Kind.String()).
		Msg("Assessment created")

	return assessment, nil
}

func (s *assessmentService) ListAssessments(ctx context.Context, userID, channelID string) ([]models.Assessment, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	channel, err := s.channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireActive(ctx, userID, channel.ServerID); err != nil {
		return nil, err
	}

	assessments, err := s.assessmentRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return assessments, nil
}

func (s *assessmentService) GetAssessment(ctx context.Context, userID, assessmentID string) (*models.Assessment, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	assessment, err := s.assessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireActive(ctx, userID, assessment.ServerID); err != nil {
		return nil, err
	}

	return assessment, nil
}

func (s *assessmentService) UpdateSettings(ctx context.Context, userID, assessmentID string, req *models.UpdateAssessmentSettingsRequest) (*models.Assessment, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	assessment, err := s.assessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Require(ctx, userID, assessment.ServerID, models.StaffRoles...); err != nil {
		return nil, err
	}

	if req.IsActive != nil {
		assessment.IsActive = *req.IsActive
	}
	if req.AllowReferences != nil {
		assessment.AllowReferences = *req.AllowReferences
	}
	if req.Shuffle != nil {
		assessment.Shuffle = *req.Shuffle
	}
	if req.ClearDeadline {
		assessment.Deadline = nil
	} else if req.Deadline != nil {
		assessment.Deadline = req.Deadline
	}
	assessment.UpdatedAt = s.now().UTC()

	if err := s.assessmentRepo.Update(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	s.logger.Info().
		Str("assessment_id", assessmentID).
		Bool("active", assessment.IsActive).
		Msg("Assessment settings updated")

	return assessment, nil
}
