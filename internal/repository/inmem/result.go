package inmem

import (
	"context"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

type resultRepository struct {
	db *DB
}

func (r *resultRepository) Create(_ context.Context, result *models.Result) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.results[result.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.db.results {
		if existing.AssessmentID == result.AssessmentID && existing.UserID == result.UserID {
			return repository.ErrDuplicate
		}
	}

	res := *result
	r.db.results[res.ID] = &res
	return nil
}

func (r *resultRepository) GetByID(_ context.Context, id string) (*models.Result, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if res, ok := r.db.results[id]; ok {
		out := *res
		return &out, nil
	}
	return nil, nil
}

func (r *resultRepository) GetByAssessmentAndUser(_ context.Context, assessmentID, userID string) (*models.Result, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, res := range r.db.results {
		if res.AssessmentID == assessmentID && res.UserID == userID {
			out := *res
			return &out, nil
		}
	}
	return nil, nil
}

func (r *resultRepository) Update(_ context.Context, result *models.Result) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.results[result.ID]; ok {
		res := *result
		r.db.results[res.ID] = &res
	}
	return nil
}

func awaitingGrade(res *models.Result) bool {
	essay, ok := res.Answers.(models.EssayAnswer)
	return ok && essay.Status == models.GradingStatusPending
}

func (r *resultRepository) ListScoresByAssessment(_ context.Context, assessmentID string) ([]float64, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	scores := []float64{}
	for _, res := range r.db.results {
		if res.AssessmentID == assessmentID && !awaitingGrade(res) {
			scores = append(scores, res.Score)
		}
	}
	return scores, nil
}

func (r *resultRepository) ListScoresByServer(_ context.Context, serverID string) ([]float64, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	scores := []float64{}
	for _, res := range r.db.results {
		a, ok := r.db.assessments[res.AssessmentID]
		if !ok || awaitingGrade(res) {
			continue
		}
		if r.db.withServer(*a).ServerID == serverID {
			scores = append(scores, res.Score)
		}
	}
	return scores, nil
}
