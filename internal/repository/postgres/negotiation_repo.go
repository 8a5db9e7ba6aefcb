package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/negotiation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type negotiationRepo struct {
	db *pgxpool.Pool
}

func NewNegotiationRepository(db *pgxpool.Pool) domain.NegotiationRepository {
	return &negotiationRepo{db: db}
}

func (r *negotiationRepo) Create(ctx context.Context, s *domain.NegotiationSession) (bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO negotiation_sessions (id, candidate_id, job_id, employer_budget, candidate_target, status)
		VALUES ($1, $2, $3, $4, $5, 'INIT')
		ON CONFLICT (id) DO NOTHING
		RETURNING status, created_at, updated_at`

	var status string
	err := r.db.QueryRow(ctx, query,
		s.ID, s.CandidateID, s.JobID, s.EmployerBudget, s.CandidateTarget,
	).Scan(&status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create negotiation: %w", err)
	}
	s.Status = domain.NegotiationStatus(status)
	s.Turns = nil
	return true, nil
}

func (r *negotiationRepo) Begin(ctx context.Context, id string) (bool, error) {
	return r.transition(ctx, id, domain.NegotiationInit, domain.NegotiationNegotiating, nil)
}

func (r *negotiationRepo) AppendTurn(ctx context.Context, sessionID string, turn domain.NegotiationTurn) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM negotiation_sessions WHERE id = $1 FOR UPDATE`, sessionID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock negotiation: %w", err)
	}
	if domain.NegotiationStatus(status) != domain.NegotiationNegotiating {
		return domain.ErrSessionNotRunning
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO negotiation_turns (session_id, seq, sender, message, offer, decision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, turn.Seq, string(turn.Sender), turn.Message, turn.Offer, string(turn.Decision), createdAt)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if _, err = tx.Exec(ctx, `UPDATE negotiation_sessions SET updated_at = now() WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("touch negotiation: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *negotiationRepo) Finish(ctx context.Context, s *domain.NegotiationSession) (bool, error) {
	return r.transition(ctx, s.ID, domain.NegotiationNegotiating, s.Status, &terminalFields{
		finalScore:    s.FinalScore,
		agreedSalary:  s.AgreedSalary,
		rationale:     s.Rationale,
		failureReason: s.FailureReason,
	})
}

func (r *negotiationRepo) FailIfRunning(ctx context.Context, id, reason string) (bool, error) {
	return r.transition(ctx, id, domain.NegotiationNegotiating, domain.NegotiationFailed, &terminalFields{
		rationale:     reason,
		failureReason: reason,
	})
}

func (r *negotiationRepo) GetByID(ctx context.Context, id string) (*domain.NegotiationSession, error) {
	query := `
		SELECT id, candidate_id, job_id, employer_budget, candidate_target, status,
		       final_score, agreed_salary, rationale, failure_reason, created_at, updated_at
		FROM negotiation_sessions WHERE id = $1`

	var s domain.NegotiationSession
	var status string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CandidateID, &s.JobID, &s.EmployerBudget, &s.CandidateTarget, &status,
		&s.FinalScore, &s.AgreedSalary, &s.Rationale, &s.FailureReason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get negotiation: %w", err)
	}
	s.Status = domain.NegotiationStatus(status)

	rows, err := r.db.Query(ctx, `
		SELECT seq, sender, message, offer, decision, created_at
		FROM negotiation_turns WHERE session_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.NegotiationTurn
		var sender, decision string
		if err := rows.Scan(&t.Seq, &sender, &t.Message, &t.Offer, &decision, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Sender = domain.Sender(sender)
		t.Decision = domain.Decision(decision)
		s.Turns = append(s.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *negotiationRepo) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE negotiation_sessions
		SET status = 'FAILED', failure_reason = $2, rationale = $2, updated_at = now()
		WHERE status = 'NEGOTIATING' AND updated_at < $1`,
		cutoff, reason)
	if err != nil {
		return 0, fmt.Errorf("fail stale negotiations: %w", err)
	}
	return result.RowsAffected(), nil
}

type terminalFields struct {
	finalScore    *int
	agreedSalary  *float64
	rationale     string
	failureReason string
}

// transition is a compare-and-set on status. It reports false when the row
// exists but is no longer in from.
func (r *negotiationRepo) transition(ctx context.Context, id string, from, to domain.NegotiationStatus, fields *terminalFields) (bool, error) {
	if !negotiation.IsTransitionAllowed(from, to) {
		return false, domain.ErrInvalidTransition
	}

	var (
		query string
		args  []any
	)
	if fields == nil {
		query = `UPDATE negotiation_sessions SET status = $3::negotiation_status, updated_at = now()
		         WHERE id = $1 AND status = $2::negotiation_status`
		args = []any{id, string(from), string(to)}
	} else {
		query = `UPDATE negotiation_sessions
		         SET status = $3::negotiation_status, final_score = $4, agreed_salary = $5,
		             rationale = $6, failure_reason = $7, updated_at = now()
		         WHERE id = $1 AND status = $2::negotiation_status`
		args = []any{id, string(from), string(to), fields.finalScore, fields.agreedSalary, fields.rationale, fields.failureReason}
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("negotiation %s -> %s: %w", from, to, err)
	}
	if result.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM negotiation_sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check negotiation: %w", err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}
