package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

type serverRepository struct {
	db *DB
}

func (r *serverRepository) CreateWithOwner(_ context.Context, server *models.Server, owner *models.Member, channel *models.Channel) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.servers[server.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, s := range r.db.servers {
		if s.InviteCode == server.InviteCode {
			return repository.ErrDuplicate
		}
	}
	if err := r.db.checkMemberUnique(owner); err != nil {
		return err
	}

	s, m, c := *server, *owner, *channel
	r.db.servers[s.ID] = &s
	r.db.members[m.ID] = &m
	r.db.channels[c.ID] = &c
	return nil
}

func (r *serverRepository) GetByID(_ context.Context, id string) (*models.Server, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if s, ok := r.db.servers[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, nil
}

func (r *serverRepository) GetByInviteCode(_ context.Context, code string) (*models.Server, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, s := range r.db.servers {
		if s.InviteCode == code {
			out := *s
			return &out, nil
		}
	}
	return nil, nil
}

func (r *serverRepository) UpdateInviteCode(_ context.Context, id, code string, updatedAt time.Time) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, s := range r.db.servers {
		if s.ID != id && s.InviteCode == code {
			return repository.ErrDuplicate
		}
	}
	if s, ok := r.db.servers[id]; ok {
		s.InviteCode = code
		s.UpdatedAt = updatedAt
	}
	return nil
}

type channelRepository struct {
	db *DB
}

func (r *channelRepository) Create(_ context.Context, channel *models.Channel) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.channels[channel.ID]; ok {
		return repository.ErrDuplicate
	}
	c := *channel
	r.db.channels[c.ID] = &c
	return nil
}

func (r *channelRepository) GetByID(_ context.Context, id string) (*models.Channel, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if c, ok := r.db.channels[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, nil
}

func (r *channelRepository) ListByServer(_ context.Context, serverID string) ([]models.Channel, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	channels := []models.Channel{}
	for _, c := range r.db.channels {
		if c.ServerID == serverID {
			channels = append(channels, *c)
		}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].CreatedAt.Before(channels[j].CreatedAt) })
	return channels, nil
}
