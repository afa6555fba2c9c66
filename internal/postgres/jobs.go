package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/jobs"
)

// JobQueue implements jobs.Queue on a PostgreSQL table, using
// FOR UPDATE SKIP LOCKED so multiple workers can poll safely.
type JobQueue struct {
	*Store
}

var _ jobs.Queue = (*JobQueue)(nil)

// NewJobQueue creates a PostgreSQL-backed job queue.
func NewJobQueue(store *Store) *JobQueue {
	return &JobQueue{Store: store}
}

// Enqueue schedules a job for the given type and JSON payload.
func (q *JobQueue) Enqueue(ctx context.Context, jobType string, payload []byte, scheduledAt time.Time) (int64, error) {
	const op = "jobs.enqueue"

	var id int64
	err := q.pool.QueryRow(ctx,
		`INSERT INTO jobs (job_type, payload, status, scheduled_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		jobType, payload, jobs.StatusPending, scheduledAt).Scan(&id)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to enqueue job")
	}
	return id, nil
}

// ClaimNext atomically claims the oldest due pending job.
func (q *JobQueue) ClaimNext(ctx context.Context) (*jobs.Job, error) {
	const op = "jobs.claim_next"

	row := q.pool.QueryRow(ctx,
		`UPDATE jobs
		    SET status = $1, attempts = attempts + 1, updated_at = now()
		  WHERE id = (
		        SELECT id FROM jobs
		         WHERE status = $2 AND scheduled_at <= now()
		         ORDER BY scheduled_at, id
		         FOR UPDATE SKIP LOCKED
		         LIMIT 1
		  )
		 RETURNING id, job_type, payload, status, attempts, max_attempts,
		           COALESCE(last_error, ''), scheduled_at, created_at, updated_at`,
		jobs.StatusRunning, jobs.StatusPending)

	var job jobs.Job
	err := row.Scan(&job.ID, &job.JobType, &job.Payload, &job.Status, &job.Attempts,
		&job.MaxAttempts, &job.LastError, &job.ScheduledAt, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal(err, op, "failed to claim job")
	}
	return &job, nil
}

// Complete marks a claimed job done.
func (q *JobQueue) Complete(ctx context.Context, jobID int64) error {
	const op = "jobs.complete"

	_, err := q.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1`,
		jobID, jobs.StatusCompleted)
	if err != nil {
		return domain.Internal(err, op, "failed to complete job")
	}
	return nil
}

// Fail records a failed attempt, rescheduling with linear backoff until the
// attempt budget is exhausted.
func (q *JobQueue) Fail(ctx context.Context, jobID int64, jobErr error) error {
	const op = "jobs.fail"

	_, err := q.pool.Exec(ctx,
		`UPDATE jobs
		    SET status = CASE WHEN attempts >= max_attempts THEN $2 ELSE $3 END,
		        scheduled_at = now() + (attempts * interval '30 seconds'),
		        last_error = $4,
		        updated_at = now()
		  WHERE id = $1`,
		jobID, jobs.StatusFailed, jobs.StatusPending, jobErr.Error())
	if err != nil {
		return domain.Internal(err, op, "failed to record job failure")
	}
	return nil
}
