package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/cache"
	"github.com/RubachokBoss/classroom-service/internal/grades"
	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

type StatsService interface {
	AssessmentStats(ctx context.Context, userID, assessmentID string) (*models.StatsResponse, error)
	ServerStats(ctx context.Context, userID, serverID string) (*models.StatsResponse, error)
}

type statsService struct {
	assessmentRepo repository.AssessmentRepository
	resultRepo     repository.ResultRepository
	authz          Authorizer
	cache          cache.StatsCache
	logger         zerolog.Logger
}

func NewStatsService(
	assessmentRepo repository.AssessmentRepository,
	resultRepo repository.ResultRepository,
	authz Authorizer,
	statsCache cache.StatsCache,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		authz:          authz,
		cache:          statsCache,
		logger:         logger,
	}
}

func (s *statsService) AssessmentStats(ctx context.Context, userID, assessmentID string) (*models.StatsResponse, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	if _, err := s.authz.Require(ctx, userID, assessment.ServerID, models.StaffRoles...); err != nil {
		return nil, err
	}

	return s.summarize(ctx, models.StatsScopeAssessment, assessmentID, s.resultRepo.ListScoresByAssessment)
}

func (s *statsService) ServerStats(ctx context.Context, userID, serverID string) (*models.StatsResponse, error) {
	if _, err := s.authz.Require(ctx, userID, serverID, models.StaffRoles...); err != nil {
		return nil, err
	}

	return s.summarize(ctx, models.StatsScopeServer, serverID, s.resultRepo.ListScoresByServer)
}

func (s *statsService) summarize(
	ctx context.Context,
	scope, id string,
	list func(ctx context.Context, id string) ([]float64, error),
) (*models.StatsResponse, error) {
	if cached, ok := s.cache.Get(ctx, scope, id); ok {
		return &models.StatsResponse{Scope: scope, ScopeID: id, Cached: true, Summary: *cached}, nil
	}

	scores, err := list(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s scores: %w", scope, err)
	}

	summary := grades.Aggregate(scores)
	s.cache.Set(ctx, scope, id, summary)

	s.logger.Debug().
		Str("scope", scope).
		Str("scope_id", id).
		Int("count", summary.Count).
		Msg("Grade statistics computed")

	return &models.StatsResponse{Scope: scope, ScopeID: id, Summary: summary}, nil
}
