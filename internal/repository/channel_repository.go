package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	ListByServer(ctx context.Context, serverID string) ([]models.Channel, error)
}

type channelRepository struct {
	*PostgresRepository
}

func NewChannelRepository(db *sql.DB, logger zerolog.Logger) ChannelRepository {
	return &channelRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *channelRepository) Create(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO channels (id, server_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		channel.ID,
		channel.ServerID,
		channel.Name,
		channel.CreatedAt,
	)

	return mapInsertError(err)
}

func (r *channelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `
		SELECT id, server_id, name, created_at
		FROM channels
		WHERE id = $1
	`

	channel := &models.Channel{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&channel.ID,
		&channel.ServerID,
		&channel.Name,
		&channel.CreatedAt,
	)

	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return channel, nil
}

func (r *channelRepository) ListByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	query := `
		SELECT id, server_id, name, created_at
		FROM channels
		WHERE server_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		var channel models.Channel
		if err := rows.Scan(
			&channel.ID,
			&channel.ServerID,
			&channel.Name,
			&channel.CreatedAt,
		); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}
