package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type ServerRepository interface {
	// CreateWithOwner stores the server, its owner's membership and its
	// default channel atomically.
	CreateWithOwner(ctx context.Context, server *models.Server, owner *models.Member, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Server, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Server, error)
	UpdateInviteCode(ctx context.Context, id, code string, updatedAt time.Time) error
}

type serverRepository struct {
	*PostgresRepository
}

func NewServerRepository(db *sql.DB, logger zerolog.Logger) ServerRepository {
	return &serverRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *serverRepository) CreateWithOwner(ctx context.Context, server *models.Server, owner *models.Member, channel *models.Channel) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO servers (id, name, owner_id, is_public, invite_code, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			server.ID,
			server.Name,
			server.OwnerID,
			server.IsPublic,
			server.InviteCode,
			server.CreatedAt,
			server.UpdatedAt,
		)
		if err != nil {
			return mapInsertError(err)
		}

		if err := insertMember(ctx, tx, owner); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO channels (id, server_id, name, created_at)
			VALUES ($1, $2, $3, $4)
		`,
			channel.ID,
			channel.ServerID,
			channel.Name,
			channel.CreatedAt,
		)
		return mapInsertError(err)
	})
}

func (r *serverRepository) GetByID(ctx context.Context, id string) (*models.Server, error) {
	query := `
		SELECT id, name, owner_id, is_public, invite_code, created_at, updated_at
		FROM servers
		WHERE id = $1
	`

	return scanServer(r.db.QueryRowContext(ctx, query, id))
}

func (r *serverRepository) GetByInviteCode(ctx context.Context, code string) (*models.Server, error) {
	query := `
		SELECT id, name, owner_id, is_public, invite_code, created_at, updated_at
		FROM servers
		WHERE invite_code = $1
	`

	return scanServer(r.db.QueryRowContext(ctx, query, code))
}

func scanServer(row *sql.Row) (*models.Server, error) {
	server := &models.Server{}
	err := row.Scan(
		&server.ID,
		&server.Name,
		&server.OwnerID,
		&server.IsPublic,
		&server.InviteCode,
		&server.CreatedAt,
		&server.UpdatedAt,
	)

	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return server, nil
}

func (r *serverRepository) UpdateInviteCode(ctx context.Context, id, code string, updatedAt time.Time) error {
	query := `
		UPDATE servers
		SET invite_code = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, code, updatedAt, id)
	return mapInsertError(err)
}
