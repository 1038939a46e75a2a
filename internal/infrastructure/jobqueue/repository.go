package jobqueue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements JobRepository on top of a relational table.
// Durability comes from the table itself: a restart loses nothing, and the
// claim query hands each job to exactly one worker.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// rowLock adds FOR UPDATE locking on databases that support it. SQLite has a
// single writer and no row locks, so the clause is skipped there.
func rowLock(db *gorm.DB, options string) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE", Options: options})
}

// Enqueue persists a new job
func (r *GormJobRepository) Enqueue(ctx context.Context, job *fulfillment.Job) error {
	if !job.Priority.IsValid() {
		return shared.ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(models.JobModelFromDomain(job)).Error
}

// ClaimNext claims the next eligible job: strict priority tiers, FIFO within
// a tier, and only jobs whose next_run_at has passed. The row is locked with
// FOR UPDATE SKIP LOCKED while it transitions to running, so concurrent
// workers never claim the same job.
func (r *GormJobRepository) ClaimNext(ctx context.Context) (*fulfillment.Job, error) {
	var claimed *fulfillment.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.JobModel
		err := rowLock(tx, "SKIP LOCKED").
			Where("status IN ? AND next_run_at <= ?", []fulfillment.JobStatus{
				fulfillment.JobStatusPending,
				fulfillment.JobStatusFailed,
			}, time.Now()).
			Order("priority_rank ASC, created_at ASC").
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		job := model.ToDomain()
		if err := job.MarkRunning(); err != nil {
			return err
		}

		if err := tx.Model(&models.JobModel{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":     job.Status,
				"attempts":   job.Attempts,
				"started_at": job.StartedAt,
				"updated_at": job.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		claimed = job
		return nil
	})

	return claimed, err
}

// Complete marks a running job succeeded
func (r *GormJobRepository) Complete(ctx context.Context, jobID uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.JobModel{}).
		Where("id = ? AND status = ?", jobID, fulfillment.JobStatusRunning).
		Updates(map[string]any{
			"status":      fulfillment.JobStatusSucceeded,
			"finished_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Fail records a failure for a running job. The domain transition decides
// between a backoff retry and the dead letter.
func (r *GormJobRepository) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.JobModel
		if err := rowLock(tx, "").
			First(&model, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		job := model.ToDomain()
		if err := job.MarkFailed(errMsg); err != nil {
			return err
		}

		return tx.Model(&models.JobModel{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":      job.Status,
				"last_error":  job.LastError,
				"next_run_at": job.NextRunAt,
				"finished_at": job.FinishedAt,
				"updated_at":  job.UpdatedAt,
			}).Error
	})
}

// FindByID loads a job
func (r *GormJobRepository) FindByID(ctx context.Context, jobID uuid.UUID) (*fulfillment.Job, error) {
	var model models.JobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDead lists dead-lettered jobs, most recently finished first
func (r *GormJobRepository) FindDead(ctx context.Context, page, pageSize int) ([]*fulfillment.Job, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.JobModel{}).
		Where("status = ?", fulfillment.JobStatusDead)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobModels []models.JobModel
	if err := base.
		Order("finished_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobModels).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]*fulfillment.Job, len(jobModels))
	for i := range jobModels {
		jobs[i] = jobModels[i].ToDomain()
	}
	return jobs, total, nil
}

// Replay resets a dead-lettered job to pending with a fresh attempt budget
func (r *GormJobRepository) Replay(ctx context.Context, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.JobModel
		if err := rowLock(tx, "").
			First(&model, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		job := model.ToDomain()
		if err := job.ResetForReplay(); err != nil {
			return shared.ErrInvalidState
		}

		return tx.Model(&models.JobModel{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":      job.Status,
				"attempts":    job.Attempts,
				"last_error":  job.LastError,
				"next_run_at": job.NextRunAt,
				"finished_at": nil,
				"updated_at":  job.UpdatedAt,
			}).Error
	})
}

// CountByStatus returns job counts per status
func (r *GormJobRepository) CountByStatus(ctx context.Context) (map[fulfillment.JobStatus]int64, error) {
	type row struct {
		Status fulfillment.JobStatus
		Total  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.JobModel{}).
		Select("status, count(*) as total").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[fulfillment.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
