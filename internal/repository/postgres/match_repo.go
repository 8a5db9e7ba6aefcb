package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"swiftjobs-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type matchRepo struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) domain.MatchRepository {
	return &matchRepo{db: db}
}

const matchColumns = `id, applicant_id, job_id, match_score, applicant_liked_at, employer_liked_at, matched_at, created_at`

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	if err := row.Scan(
		&m.ID, &m.ApplicantID, &m.JobID, &m.MatchScore,
		&m.ApplicantLikedAt, &m.EmployerLikedAt, &m.MatchedAt, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateOnce relies on UNIQUE (applicant_id, job_id): the first insert wins,
// everyone else reads the winner.
func (r *matchRepo) CreateOnce(ctx context.Context, m *domain.Match) (*domain.Match, bool, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO matches (id, applicant_id, job_id, match_score, applicant_liked_at, employer_liked_at, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
		ON CONFLICT (applicant_id, job_id) DO NOTHING
		RETURNING ` + matchColumns

	created, err := scanMatch(r.db.QueryRow(ctx, query,
		m.ID, m.ApplicantID, m.JobID, m.MatchScore, m.ApplicantLikedAt, m.EmployerLikedAt, m.MatchedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("create match: %w", err)
	}

	existing, err := r.GetByPair(ctx, m.ApplicantID, m.JobID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *matchRepo) GetByPair(ctx context.Context, applicantID, jobID string) (*domain.Match, error) {
	m, err := scanMatch(r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE applicant_id = $1 AND job_id = $2`,
		applicantID, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

func (r *matchRepo) List(ctx context.Context, filter domain.MatchFilter) ([]domain.Match, error) {
	var conds []string
	var args []any
	if filter.ApplicantID != "" {
		args = append(args, filter.ApplicantID)
		conds = append(conds, fmt.Sprintf("applicant_id = $%d", len(args)))
	}
	if filter.JobID != "" {
		args = append(args, filter.JobID)
		conds = append(conds, fmt.Sprintf("job_id = $%d", len(args)))
	}

	query := `SELECT ` + matchColumns + ` FROM matches`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}
