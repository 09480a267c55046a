package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type ResultRepository interface {
	// Create returns ErrDuplicate when the user already has a result for the
	// assessment.
	Create(ctx context.Context, result *models.Result) error
	GetByID(ctx context.Context, id string) (*models.Result, error)
	GetByAssessmentAndUser(ctx context.Context, assessmentID, userID string) (*models.Result, error)
	Update(ctx context.Context, result *models.Result) error
	// ListScoresByAssessment and ListScoresByServer skip essays that are
	// still waiting for a grade.
	ListScoresByAssessment(ctx context.Context, assessmentID string) ([]float64, error)
	ListScoresByServer(ctx context.Context, serverID string) ([]float64, error)
}

type resultRepository struct {
	*PostgresRepository
}

func NewResultRepository(db *sql.DB, logger zerolog.Logger) ResultRepository {
	return &resultRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	answers, err := models.EncodeAnswers(result.Answers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO results (id, assessment_id, kind, user_id, score, answers,
			feedback, graded_by, graded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.AssessmentID,
		result.Kind,
		result.UserID,
		result.Score,
		string(answers),
		result.Feedback,
		result.GradedBy,
		result.GradedAt,
		result.CreatedAt,
		result.UpdatedAt,
	)

	return mapInsertError(err)
}

const resultColumns = `id, assessment_id, kind, user_id, score, answers,
	feedback, graded_by, graded_at, created_at, updated_at`

func (r *resultRepository) scanOne(row *sql.Row) (*models.Result, error) {
	result := &models.Result{}
	var answers []byte

	err := row.Scan(
		&result.ID,
		&result.AssessmentID,
		&result.Kind,
		&result.UserID,
		&result.Score,
		&answers,
		&result.Feedback,
		&result.GradedBy,
		&result.GradedAt,
		&result.CreatedAt,
		&result.UpdatedAt,
	)

	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result.Answers, err = models.DecodeAnswers(answers)
	if err != nil {
		return nil, fmt.Errorf("result %s: %w", result.ID, err)
	}

	return result, nil
}

func (r *resultRepository) GetByID(ctx context.Context, id string) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *resultRepository) GetByAssessmentAndUser(ctx context.Context, assessmentID, userID string) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE assessment_id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, assessmentID, userID))
}

func (r *resultRepository) Update(ctx context.Context, result *models.Result) error {
	answers, err := models.EncodeAnswers(result.Answers)
	if err != nil {
		return err
	}

	query := `
		UPDATE results
		SET score = $1, answers = $2, feedback = $3, graded_by = $4, graded_at = $5, updated_at = $6
		WHERE id = $7
	`

	_, err = r.db.ExecContext(ctx, query,
		result.Score,
		string(answers),
		result.Feedback,
		result.GradedBy,
		result.GradedAt,
		result.UpdatedAt,
		result.ID,
	)

	return err
}

const gradedOnly = `COALESCE(r.answers->'data'->>'status', '') <> 'pending'`

func (r *resultRepository) ListScoresByAssessment(ctx context.Context, assessmentID string) ([]float64, error) {
	query := `
		SELECT r.score
		FROM results r
		WHERE r.assessment_id = $1 AND ` + gradedOnly

	return r.listScores(ctx, query, assessmentID)
}

func (r *resultRepository) ListScoresByServer(ctx context.Context, serverID string) ([]float64, error) {
	query := `
		SELECT r.score
		FROM results r
		JOIN assessments a ON r.assessment_id = a.id
		JOIN channels c ON a.channel_id = c.id
		WHERE c.server_id = $1 AND ` + gradedOnly

	return r.listScores(ctx, query, serverID)
}

func (r *resultRepository) listScores(ctx context.Context, query string, arg string) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []float64{}
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	return scores, rows.Err()
}
