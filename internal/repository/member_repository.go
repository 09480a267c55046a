package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

type MemberRepository interface {
	// Create returns ErrDuplicate when the profile already belongs to the server.
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id string) (*models.Member, error)
	GetByServerAndProfile(ctx context.Context, serverID, profileID string) (*models.Member, error)
	// ListByServer lists members with their profile details. An empty status
	// lists every member.
	ListByServer(ctx context.Context, serverID string, status models.MemberStatus) ([]models.MemberWithProfile, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id string) error
}

type memberRepository struct {
	*PostgresRepository
}

func NewMemberRepository(db *sql.DB, logger zerolog.Logger) MemberRepository {
	return &memberRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertMember(ctx context.Context, db execer, member *models.Member) error {
	query := `
		INSERT INTO members (id, server_id, profile_id, role, status, requested_at,
			approved_at, approved_by, rejected_at, reject_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := db.ExecContext(ctx, query,
		member.ID,
		member.ServerID,
		member.ProfileID,
		member.Role,
		member.Status,
		member.RequestedAt,
		member.ApprovedAt,
		member.ApprovedBy,
		member.RejectedAt,
		member.RejectReason,
		member.CreatedAt,
		member.UpdatedAt,
	)

	return mapInsertError(err)
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return insertMember(ctx, r.db, member)
}

const memberColumns = `id, server_id, profile_id, role, status, requested_at,
	approved_at, approved_by, rejected_at, reject_reason, created_at, updated_at`

func memberScanDest(m *models.Member) []interface{} {
	return []interface{}{
		&m.ID,
		&m.ServerID,
		&m.ProfileID,
		&m.Role,
		&m.Status,
		&m.RequestedAt,
		&m.ApprovedAt,
		&m.ApprovedBy,
		&m.RejectedAt,
		&m.RejectReason,
		&m.CreatedAt,
		&m.UpdatedAt,
	}
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	member := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(memberScanDest(member)...)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return member, nil
}

func (r *memberRepository) GetByServerAndProfile(ctx context.Context, serverID, profileID string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE server_id = $1 AND profile_id = $2`

	member := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, serverID, profileID).Scan(memberScanDest(member)...)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return member, nil
}

func (r *memberRepository) ListByServer(ctx context.Context, serverID string, status models.MemberStatus) ([]models.MemberWithProfile, error) {
	query := `
		SELECT
			m.id, m.server_id, m.profile_id, m.role, m.status, m.requested_at,
			m.approved_at, m.approved_by, m.rejected_at, m.reject_reason, m.created_at, m.updated_at,
			COALESCE(p.name, '') as profile_name, COALESCE(p.email, '') as profile_email
		FROM members m
		LEFT JOIN profiles p ON m.profile_id = p.id
		WHERE m.server_id = $1 AND ($2 = '' OR m.status = $2)
		ORDER BY m.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, serverID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.MemberWithProfile{}
	for rows.Next() {
		var m models.MemberWithProfile
		dest := append(memberScanDest(&m.Member), &m.ProfileName, &m.ProfileEmail)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	query := `
		UPDATE members
		SET role = $1, status = $2, requested_at = $3, approved_at = $4, approved_by = $5,
			rejected_at = $6, reject_reason = $7, updated_at = $8
		WHERE id = $9
	`

	_, err := r.db.ExecContext(ctx, query,
		member.Role,
		member.Status,
		member.RequestedAt,
		member.ApprovedAt,
		member.ApprovedBy,
		member.RejectedAt,
		member.RejectReason,
		member.UpdatedAt,
		member.ID,
	)

	return err
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM members WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
