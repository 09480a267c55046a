package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/cache"
	"github.com/RubachokBoss/classroom-service/internal/grades"
	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/validation"
)

// ExternalGraderID marks grades applied from the grading queue without a
// grader identity.
const ExternalGraderID = "external-grader"

type GradingService interface {
	// Grade updates a result in place on behalf of a staff member.
	Grade(ctx context.Context, graderID, resultID string, req *models.GradeRequest) (*models.Result, error)
	// ApplyExternalGrade applies a grade produced by the external grader.
	ApplyExternalGrade(ctx context.Context, event *models.ResultGradedEvent) (*models.Result, error)
}

type gradingService struct {
	assessmentRepo repository.AssessmentRepository
	resultRepo     repository.ResultRepository
	authz          Authorizer
	stats          cache.StatsCache
	logger         zerolog.Logger
	now            func() time.Time
}

func NewGradingService(
	assessmentRepo repository.AssessmentRepository,
	resultRepo repository.ResultRepository,
	authz Authorizer,
	stats cache.StatsCache,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		authz:          authz,
		stats:          stats,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *gradingService) load(ctx context.Context, resultID string) (*models.Result, *models.Assessment, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result == nil {
		return nil, nil, ErrResultNotFound
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, result.AssessmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment == nil {
		return nil, nil, ErrAssessmentNotFound
	}

	return result, assessment, nil
}

func (s *gradingService) Grade(ctx context.Context, graderID, resultID string, req *models.GradeRequest) (*models.Result, error) {
	if graderID == "" {
		return nil, ErrMissingIdentity
	}
	if err := validation.Struct(req); err != nil {
		return nil, invalidInput(err)
	}

	result, assessment, err := s.load(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Require(ctx, graderID, assessment.ServerID, models.StaffRoles...); err != nil {
		return nil, err
	}

	return s.apply(ctx, result, assessment, *req.Score, req.Feedback, graderID)
}

func (s *gradingService) ApplyExternalGrade(ctx context.Context, event *models.ResultGradedEvent) (*models.Result, error) {
	if !grades.Valid(event.Score) {
		return nil, ErrInvalidScore
	}

	result, assessment, err := s.load(ctx, event.ResultID)
	if err != nil {
		return nil, err
	}

	graderID := strings.TrimSpace(event.GraderID)
	if graderID == "" {
		graderID = ExternalGraderID
	}

	return s.apply(ctx, result, assessment, event.Score, event.Feedback, graderID)
}

func (s *gradingService) apply(ctx context.Context, result *models.Result, assessment *models.Assessment, score float64, feedback, graderID string) (*models.Result, error) {
	if !grades.Valid(score) {
		return nil, ErrInvalidScore
	}

	now := s.now().UTC()
	result.Score = score
	result.Feedback = nil
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		result.Feedback = &feedback
	}
	result.GradedBy = &graderID
	result.GradedAt = &now
	result.UpdatedAt = now

	if essay, ok := result.Answers.(models.EssayAnswer); ok {
		essay.Status = models.GradingStatusGraded
		result.Answers = essay
	}

	if err := s.resultRepo.Update(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to update result: %w", err)
	}

	s.stats.Invalidate(ctx, assessment.ID, assessment.ServerID)

	s.logger.Info().
		Str("result_id", result.ID).
		Str("graded_by", graderID).
		Float64("score", score).
		Msg("Result graded")

	return result, nil
}
