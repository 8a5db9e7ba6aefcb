package postgres

import (
	"context"
	"errors"
	"fmt"

	"swiftjobs-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

// Upsert keeps the stored embedding when none is supplied and the resume text
// did not change; a changed resume without a new embedding clears it.
func (r *profileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}

	query := `
		INSERT INTO profiles (id, role, full_name, resume_text, embedding, skills, salary_expectation)
		VALUES ($1, $2, $3, $4, $5::vector, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			role = EXCLUDED.role,
			full_name = EXCLUDED.full_name,
			resume_text = EXCLUDED.resume_text,
			embedding = CASE
				WHEN EXCLUDED.embedding IS NOT NULL THEN EXCLUDED.embedding
				WHEN profiles.resume_text = EXCLUDED.resume_text THEN profiles.embedding
				ELSE NULL
			END,
			skills = EXCLUDED.skills,
			salary_expectation = EXCLUDED.salary_expectation,
			updated_at = now()
		RETURNING created_at, updated_at, embedding::text`

	var emb *string
	err := r.db.QueryRow(ctx, query,
		p.ID, string(p.Role), p.FullName, p.ResumeText, vectorArg(p.Embedding),
		pq.Array(p.Skills), p.SalaryExpectation,
	).Scan(&p.CreatedAt, &p.UpdatedAt, &emb)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if p.Embedding, err = scanVector(emb); err != nil {
		return err
	}
	p.HasEmbedding = len(p.Embedding) > 0
	return nil
}

const profileColumns = `id, role, full_name, resume_text, embedding::text, skills, salary_expectation, created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var role string
	var emb *string
	err := row.Scan(
		&p.ID, &role, &p.FullName, &p.ResumeText, &emb,
		pq.Array(&p.Skills), &p.SalaryExpectation, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Role = domain.Role(role)
	if p.Embedding, err = scanVector(emb); err != nil {
		return nil, err
	}
	p.HasEmbedding = len(p.Embedding) > 0
	return &p, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// NearestApplicants orders applicants by cosine distance (<=>) and drops
// those the job owner already swiped on for this job.
func (r *profileRepo) NearestApplicants(ctx context.Context, ownerID, jobID string, embedding []float32, limit int) ([]domain.Profile, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + profileColumns + `
		FROM profiles p
		WHERE p.role = 'applicant'
		  AND p.embedding IS NOT NULL
		  AND vector_dims(p.embedding) = $4
		  AND NOT EXISTS (
			SELECT 1 FROM swipes s
			WHERE s.actor_id = $1 AND s.target_id = p.id AND s.job_id = $2
		  )
		ORDER BY p.embedding <=> $3::vector, p.id
		LIMIT $5`

	rows, err := r.db.Query(ctx, query, ownerID, jobID, vectorArg(embedding), len(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("nearest applicants: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *profileRepo) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	result, err := r.db.Exec(ctx,
		`UPDATE profiles SET embedding = $2::vector, updated_at = now() WHERE id = $1`,
		id, vectorArg(embedding))
	if err != nil {
		return fmt.Errorf("update profile embedding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
