package inmem

import (
	"context"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

type profileRepository struct {
	db *DB
}

func (r *profileRepository) Create(_ context.Context, profile *models.Profile) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.profiles[profile.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, p := range r.db.profiles {
		if p.Email == profile.Email {
			return repository.ErrDuplicate
		}
	}

	p := *profile
	r.db.profiles[p.ID] = &p
	return nil
}

func (r *profileRepository) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if p, ok := r.db.profiles[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, nil
}

func (r *profileRepository) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, p := range r.db.profiles {
		if p.Email == email {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *profileRepository) Exists(_ context.Context, id string) (bool, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	_, ok := r.db.profiles[id]
	return ok, nil
}
