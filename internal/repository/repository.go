package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// Repositories bundles every store the services depend on.
type Repositories struct {
	Profiles    ProfileRepository
	Servers     ServerRepository
	Members     MemberRepository
	Channels    ChannelRepository
	Assessments AssessmentRepository
	Results     ResultRepository

	// Ping reports store health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewPostgresRepositories(db *sql.DB, logger zerolog.Logger) *Repositories {
	base := NewPostgresRepository(db, logger)

	return &Repositories{
		Profiles:    NewProfileRepository(db, logger),
		Servers:     NewServerRepository(db, logger),
		Members:     NewMemberRepository(db, logger),
		Channels:    NewChannelRepository(db, logger),
		Assessments: NewAssessmentRepository(db, logger),
		Results:     NewResultRepository(db, logger),
		Ping:        base.Ping,
	}
}
