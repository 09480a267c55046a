package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	ListByChannel(ctx context.Context, channelID string) ([]models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) error
}

type assessmentRepository struct {
	*PostgresRepository
}

func NewAssessmentRepository(db *sql.DB, logger zerolog.Logger) AssessmentRepository {
	return &assessmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	query := `
		INSERT INTO assessments (id, kind, name, channel_id, is_active, allow_references,
			shuffle, deadline, question_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		assessment.ID,
		assessment.Kind,
		assessment.Name,
		assessment.ChannelID,
		assessment.IsActive,
		assessment.AllowReferences,
		assessment.Shuffle,
		assessment.Deadline,
		assessment.QuestionCount,
		assessment.CreatedAt,
		assessment.UpdatedAt,
	)

	return mapInsertError(err)
}

const assessmentSelect = `
	SELECT
		a.id, a.kind, a.name, a.channel_id, c.server_id, a.is_active, a.allow_references,
		a.shuffle, a.deadline, a.question_count, a.created_at, a.updated_at
	FROM assessments a
	JOIN channels c ON a.channel_id = c.id
`

func assessmentScanDest(a *models.Assessment) []interface{} {
	return []interface{}{
		&a.ID,
		&a.Kind,
		&a.Name,
		&a.ChannelID,
		&a.ServerID,
		&a.IsActive,
		&a.AllowReferences,
		&a.Shuffle,
		&a.Deadline,
		&a.QuestionCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := assessmentSelect + ` WHERE a.id = $1`

	assessment := &models.Assessment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(assessmentScanDest(assessment)...)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return assessment, nil
}

func (r *assessmentRepository) ListByChannel(ctx context.Context, channelID string) ([]models.Assessment, error) {
	query := assessmentSelect + ` WHERE a.channel_id = $1 ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assessments := []models.Assessment{}
	for rows.Next() {
		var assessment models.Assessment
		if err := rows.Scan(assessmentScanDest(&assessment)...); err != nil {
			return nil, err
		}
		assessments = append(assessments, assessment)
	}

	return assessments, rows.Err()
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	query := `
		UPDATE assessments
		SET name = $1, is_active = $2, allow_references = $3, shuffle = $4,
			deadline = $5, question_count = $6, updated_at = $7
		WHERE id = $8
	`

	_, err := r.db.ExecContext(ctx, query,
		assessment.Name,
		assessment.IsActive,
		assessment.AllowReferences,
		assessment.Shuffle,
		assessment.Deadline,
		assessment.QuestionCount,
		assessment.UpdatedAt,
		assessment.ID,
	)

	return err
}
