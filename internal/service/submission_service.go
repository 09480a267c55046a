package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/cache"
	"github.com/RubachokBoss/classroom-service/internal/grades"
	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/service/integration"
)

type SubmissionService interface {
	// Submit stores at most one result per (assessment, user). A repeated
	// submission returns the stored result with Created false.
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResult, error)
	SubmitEssay(ctx context.Context, req *models.EssaySubmitRequest) (*models.SubmitResult, error)
	GetResult(ctx context.Context, userID, resultID string) (*models.Result, error)
}

type submissionService struct {
	assessmentRepo repository.AssessmentRepository
	resultRepo     repository.ResultRepository
	authz          Authorizer
	files          integration.FileStorage
	publisher      integration.EventPublisher
	stats          cache.StatsCache
	logger         zerolog.Logger
	now            func() time.Time
}

func NewSubmissionService(
	assessmentRepo repository.AssessmentRepository,
	resultRepo repository.ResultRepository,
	authz Authorizer,
	files integration.FileStorage,
	publisher integration.EventPublisher,
	stats cache.StatsCache,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		authz:          authz,
		files:          files,
		publisher:      publisher,
		stats:          stats,
		logger:         logger,
		now:            time.Now,
	}
}

// CoerceScore turns a client-supplied score into a number in [0, 10].
// Missing or unparsable values become 0.
func CoerceScore(v interface{}) float64 {
	var score float64

	switch t := v.(type) {
	case float64:
		score = t
	case float32:
		score = float64(t)
	case int:
		score = float64(t)
	case int64:
		score = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return grades.MinScore
		}
		score = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return grades.MinScore
		}
		score = f
	default:
		return grades.MinScore
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return grades.MinScore
	}
	return grades.Clamp(score)
}

func resultRoute(resultID string) string {
	return fmt.Sprintf("/results/%s", resultID)
}

func existingSubmission(result *models.Result) *models.SubmitResult {
	return &models.SubmitResult{
		ResultID: result.ID,
		Created:  false,
		Redirect: resultRoute(result.ID),
	}
}

// findExisting is the idempotent short-circuit shared by both submit paths.
func (s *submissionService) findExisting(ctx context.Context, assessmentID, userID string) (*models.Result, error) {
	existing, err := s.resultRepo.GetByAssessmentAndUser(ctx, assessmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing result: %w", err)
	}
	return existing, nil
}

// openAssessment loads the assessment and checks the user may still submit.
func (s *submissionService) openAssessment(ctx context.Context, assessmentID, userID string) (*models.Assessment, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	if _, err := s.authz.RequireActive(ctx, userID, assessment.ServerID); err != nil {
		return nil, err
	}

	if !assessment.IsActive {
		return nil, ErrAssessmentClosed
	}
	if assessment.DeadlinePassed(s.now()) {
		return nil, ErrDeadlinePassed
	}

	return assessment, nil
}

func (s *submissionService) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResult, error) {
	if req.UserID == "" {
		return nil, ErrMissingIdentity
	}

	existing, err := s.findExisting(ctx, req.AssessmentID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existingSubmission(existing), nil
	}

	assessment, err := s.openAssessment(ctx, req.AssessmentID, req.UserID)
	if err != nil {
		return nil, err
	}

	answers, err := models.DecodeAnswers(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	if answers == nil || answers.IsEmpty() {
		return nil, ErrEmptyAnswers
	}
	if answers.Type() == models.AnswerTypeEssay {
		return nil, ErrNotEssay
	}

	now := s.now().UTC()
	result := &models.Result{
		ID:           uuid.New().String(),
		AssessmentID: assessment.ID,
		Kind:         assessment.Kind,
		UserID:       req.UserID,
		Score:        CoerceScore(req.Score),
		Answers:      answers,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.store(ctx, assessment, result, "")
}

func (s *submissionService) SubmitEssay(ctx context.Context, req *models.EssaySubmitRequest) (*models.SubmitResult, error) {
	if req.UserID == "" {
		return nil, ErrMissingIdentity
	}

	existing, err := s.findExisting(ctx, req.AssessmentID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existingSubmission(existing), nil
	}

	assessment, err := s.openAssessment(ctx, req.AssessmentID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Content == nil || req.Size <= 0 {
		return nil, ErrEmptyFile
	}

	resultID := uuid.New().String()
	key := fmt.Sprintf("essays/%s/%s%s", assessment.ID, resultID, strings.ToLower(filepath.Ext(req.FileName)))

	stored, err := s.files.Put(ctx, key, req.Content, req.Size, req.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to store essay: %w", err)
	}

	now := s.now().UTC()
	result := &models.Result{
		ID:           resultID,
		AssessmentID: assessment.ID,
		Kind:         assessment.Kind,
		UserID:       req.UserID,
		Score:        grades.MinScore,
		Answers: models.EssayAnswer{
			File: models.EssayFile{
				Key:      stored.Key,
				URL:      stored.URL,
				Name:     req.FileName,
				MimeType: req.MimeType,
				Size:     req.Size,
			},
			SubmittedAt: now,
			Status:      models.GradingStatusPending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.store(ctx, assessment, result, stored.Key)
}

// store inserts result. When another request stored a result for the same
// user first, that result is returned and the uploaded object at fileKey,
// if any, is removed.
func (s *submissionService) store(ctx context.Context, assessment *models.Assessment, result *models.Result, fileKey string) (*models.SubmitResult, error) {
	err := s.resultRepo.Create(ctx, result)
	if err != nil {
		s.discardFile(ctx, fileKey)

		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create result: %w", err)
		}

		winner, err := s.findExisting(ctx, result.AssessmentID, result.UserID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("result vanished after duplicate insert for assessment %s", result.AssessmentID)
		}

		s.logger.Info().
			Str("assessment_id", result.AssessmentID).
			Str("user_id", result.UserID).
			Str("result_id", winner.ID).
			Msg("Concurrent submission resolved to existing result")

		return existingSubmission(winner), nil
	}

	s.stats.Invalidate(ctx, assessment.ID, assessment.ServerID)

	s.logger.Info().
		Str("result_id", result.ID).
		Str("assessment_id", result.AssessmentID).
		Str("user_id", result.UserID).
		Str("answer_type", string(result.Answers.Type())).
		Float64("score", result.Score).
		Msg("Submission stored")

	s.publishCreated(ctx, result)

	return &models.SubmitResult{
		ResultID: result.ID,
		Created:  true,
		Redirect: resultRoute(result.ID),
	}, nil
}

func (s *submissionService) discardFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete orphaned essay upload")
	}
}

func (s *submissionService) publishCreated(ctx context.Context, result *models.Result) {
	event := &models.SubmissionCreatedEvent{
		ResultID:     result.ID,
		AssessmentID: result.AssessmentID,
		UserID:       result.UserID,
		Kind:         result.Kind.String(),
		AnswerType:   string(result.Answers.Type()),
		Timestamp:    s.now().Unix(),
	}
	if essay, ok := result.Answers.(models.EssayAnswer); ok {
		event.FileURL = essay.File.URL
	}

	if err := s.publisher.PublishSubmissionCreated(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("result_id", result.ID).
			Msg("Failed to publish submission event")
	}
}

func (s *submissionService) GetResult(ctx context.Context, userID, resultID string) (*models.Result, error) {
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result == nil {
		return nil, ErrResultNotFound
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, result.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	if result.UserID == userID {
		_, err = s.authz.RequireActive(ctx, userID, assessment.ServerID)
	} else {
		_, err = s.authz.Require(ctx, userID, assessment.ServerID, models.StaffRoles...)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}
