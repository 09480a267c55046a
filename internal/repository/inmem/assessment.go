package inmem

import (
	"context"
	"sort"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

type assessmentRepository struct {
	db *DB
}

func (r *assessmentRepository) Create(_ context.Context, assessment *models.Assessment) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.assessments[assessment.ID]; ok {
		return repository.ErrDuplicate
	}
	a := *assessment
	r.db.assessments[a.ID] = &a
	return nil
}

// withServer fills ServerID from the owning channel, like the SQL join.
func (db *DB) withServer(a models.Assessment) models.Assessment {
	if c, ok := db.channels[a.ChannelID]; ok {
		a.ServerID = c.ServerID
	}
	return a
}

func (r *assessmentRepository) GetByID(_ context.Context, id string) (*models.Assessment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if a, ok := r.db.assessments[id]; ok {
		out := r.db.withServer(*a)
		return &out, nil
	}
	return nil, nil
}

func (r *assessmentRepository) ListByChannel(_ context.Context, channelID string) ([]models.Assessment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	assessments := []models.Assessment{}
	for _, a := range r.db.assessments {
		if a.ChannelID == channelID {
			assessments = append(assessments, r.db.withServer(*a))
		}
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].CreatedAt.After(assessments[j].CreatedAt) })
	return assessments, nil
}

func (r *assessmentRepository) Update(_ context.Context, assessment *models.Assessment) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.assessments[assessment.ID]; ok {
		a := *assessment
		r.db.assessments[a.ID] = &a
	}
	return nil
}
