package postgres

import (
	"context"
	"errors"
	"fmt"

	"swiftjobs-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type swipeRepo struct {
	db *pgxpool.Pool
}

func NewSwipeRepository(db *pgxpool.Pool) domain.SwipeRepository {
	return &swipeRepo{db: db}
}

// Upsert writes only when the action differs from the stored one, so an
// identical repeat returns no row and reports false.
func (r *swipeRepo) Upsert(ctx context.Context, s *domain.Swipe) (bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO swipes (id, actor_id, target_id, job_id, actor_role, action)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (actor_id, target_id, job_id) DO UPDATE SET
			action = EXCLUDED.action,
			actor_role = EXCLUDED.actor_role,
			updated_at = now()
		WHERE swipes.action IS DISTINCT FROM EXCLUDED.action
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.ActorID, s.TargetID, s.JobID, string(s.ActorRole), string(s.Action),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("upsert swipe: %w", err)
	}

	existing, err := r.Get(ctx, s.ActorID, s.TargetID, s.JobID)
	if err != nil {
		return false, err
	}
	*s = *existing
	return false, nil
}

func (r *swipeRepo) Get(ctx context.Context, actorID, targetID, jobID string) (*domain.Swipe, error) {
	query := `
		SELECT id, actor_id, target_id, job_id, actor_role, action, created_at, updated_at
		FROM swipes WHERE actor_id = $1 AND target_id = $2 AND job_id = $3`

	var s domain.Swipe
	var role, action string
	err := r.db.QueryRow(ctx, query, actorID, targetID, jobID).Scan(
		&s.ID, &s.ActorID, &s.TargetID, &s.JobID, &role, &action, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get swipe: %w", err)
	}
	s.ActorRole = domain.Role(role)
	s.Action = domain.SwipeAction(action)
	return &s, nil
}
