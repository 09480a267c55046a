package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type profileRepository struct {
	*PostgresRepository
}

func NewProfileRepository(db *sql.DB, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Name,
		profile.Email,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	return mapInsertError(err)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *profileRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (r *profileRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
