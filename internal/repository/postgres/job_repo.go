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

type jobRepo struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) domain.JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, owner_id, title, description, requirements, budget_min, budget_max, embedding::text, created_at, updated_at`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var emb *string
	if err := row.Scan(
		&job.ID, &job.OwnerID, &job.Title, &job.Description, pq.Array(&job.Requirements),
		&job.BudgetMin, &job.BudgetMax, &emb, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if job.Embedding, err = scanVector(emb); err != nil {
		return nil, err
	}
	job.HasEmbedding = len(job.Embedding) > 0
	return &job, nil
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Requirements == nil {
		job.Requirements = []string{}
	}

	query := `INSERT INTO jobs (id, owner_id, title, description, requirements, budget_min, budget_max, embedding)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		job.ID, job.OwnerID, job.Title, job.Description, pq.Array(job.Requirements),
		job.BudgetMin, job.BudgetMax, vectorArg(job.Embedding),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	job.HasEmbedding = len(job.Embedding) > 0
	return nil
}

// Update keeps the stored embedding unless the description changed or a new
// embedding is supplied.
func (r *jobRepo) Update(ctx context.Context, job *domain.Job) error {
	if job.Requirements == nil {
		job.Requirements = []string{}
	}

	query := `
		UPDATE jobs SET
			title = $2,
			description = $3,
			requirements = $4,
			budget_min = $5,
			budget_max = $6,
			embedding = CASE
				WHEN $7::vector IS NOT NULL THEN $7::vector
				WHEN description = $3 THEN embedding
				ELSE NULL
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + jobColumns

	updated, err := scanJob(r.db.QueryRow(ctx, query,
		job.ID, job.Title, job.Description, pq.Array(job.Requirements),
		job.BudgetMin, job.BudgetMax, vectorArg(job.Embedding),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update job: %w", err)
	}
	*job = *updated
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (r *jobRepo) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	result, err := r.db.Exec(ctx,
		`UPDATE jobs SET embedding = $2::vector, updated_at = now() WHERE id = $1`,
		id, vectorArg(embedding))
	if err != nil {
		return fmt.Errorf("update job embedding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NearestForApplicant orders by cosine distance (<=>) and drops jobs the
// applicant already swiped on.
func (r *jobRepo) NearestForApplicant(ctx context.Context, applicantID string, embedding []float32, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs j
		WHERE j.embedding IS NOT NULL
		  AND vector_dims(j.embedding) = $3
		  AND NOT EXISTS (
			SELECT 1 FROM swipes s
			WHERE s.actor_id = $1 AND s.job_id = j.id AND s.target_id = j.id
		  )
		ORDER BY j.embedding <=> $2::vector, j.id
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, applicantID, vectorArg(embedding), len(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("nearest jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
