// Package inmem keeps every store in process memory. It backs the "memory"
// database driver and the service and handler tests.
package inmem

import (
	"context"
	"sync"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

// DB holds all tables behind one lock so multi-table writes stay atomic.
type DB struct {
	mutex sync.RWMutex

	profiles    map[string]*models.Profile
	servers     map[string]*models.Server
	members     map[string]*models.Member
	channels    map[string]*models.Channel
	assessments map[string]*models.Assessment
	results     map[string]*models.Result
}

func NewDB() *DB {
	return &DB{
		profiles:    make(map[string]*models.Profile),
		servers:     make(map[string]*models.Server),
		members:     make(map[string]*models.Member),
		channels:    make(map[string]*models.Channel),
		assessments: make(map[string]*models.Assessment),
		results:     make(map[string]*models.Result),
	}
}

// NewRepositories wires every repository onto a fresh DB.
func NewRepositories() *repository.Repositories {
	return NewDB().Repositories()
}

func (db *DB) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Profiles:    &profileRepository{db: db},
		Servers:     &serverRepository{db: db},
		Members:     &memberRepository{db: db},
		Channels:    &channelRepository{db: db},
		Assessments: &assessmentRepository{db: db},
		Results:     &resultRepository{db: db},
		Ping:        func(context.Context) error { return nil },
	}
}
