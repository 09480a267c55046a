package inmem

import (
	"context"
	"sort"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

type memberRepository struct {
	db *DB
}

// checkMemberUnique mirrors the (server_id, profile_id) unique index.
// Callers hold the write lock.
func (db *DB) checkMemberUnique(member *models.Member) error {
	if _, ok := db.members[member.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, m := range db.members {
		if m.ServerID == member.ServerID && m.ProfileID == member.ProfileID {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *memberRepository) Create(_ context.Context, member *models.Member) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if err := r.db.checkMemberUnique(member); err != nil {
		return err
	}

	m := *member
	r.db.members[m.ID] = &m
	return nil
}

func (r *memberRepository) GetByID(_ context.Context, id string) (*models.Member, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if m, ok := r.db.members[id]; ok {
		out := *m
		return &out, nil
	}
	return nil, nil
}

func (r *memberRepository) GetByServerAndProfile(_ context.Context, serverID, profileID string) (*models.Member, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, m := range r.db.members {
		if m.ServerID == serverID && m.ProfileID == profileID {
			out := *m
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memberRepository) ListByServer(_ context.Context, serverID string, status models.MemberStatus) ([]models.MemberWithProfile, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	members := []models.MemberWithProfile{}
	for _, m := range r.db.members {
		if m.ServerID != serverID || (status != "" && m.Status != status) {
			continue
		}
		item := models.MemberWithProfile{Member: *m}
		if p, ok := r.db.profiles[m.ProfileID]; ok {
			item.ProfileName = p.Name
			item.ProfileEmail = p.Email
		}
		members = append(members, item)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	return members, nil
}

func (r *memberRepository) Update(_ context.Context, member *models.Member) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.members[member.ID]; ok {
		m := *member
		r.db.members[m.ID] = &m
	}
	return nil
}

func (r *memberRepository) Delete(_ context.Context, id string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	delete(r.db.members, id)
	return nil
}
