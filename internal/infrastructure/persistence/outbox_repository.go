package persistence

import (
	"context"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository implements shared.OutboxRepository using GORM
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GORM-based outbox repository
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// Save persists one or more outbox entries. Inside Transactor.InTx the
// entries commit together with the aggregate that raised the events.
func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.OutboxEntryModelFromDomain(e))
	}
	return conn(ctx, r.db).Create(&rows).Error
}

// FindDue returns the entries the processor should deliver now, oldest
// first
func (r *GormOutboxRepository) FindDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEntryModel
	err := dueEntries(conn(ctx, r.db), now, staleBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return outboxEntries(rows), nil
}

func dueEntries(db *gorm.DB, now, staleBefore time.Time) *gorm.DB {
	return db.Where(
		"(status = ? OR (status = ? AND next_retry_at <= ?) OR (status = ? AND updated_at < ?))",
		shared.OutboxStatusPending,
		shared.OutboxStatusFailed, now,
		shared.OutboxStatusProcessing, staleBefore,
	)
}

// Claim locks the due rows among ids with FOR UPDATE SKIP LOCKED and moves
// them to processing, so two processors never deliver the same entry
func (r *GormOutboxRepository) Claim(ctx context.Context, ids []uuid.UUID, staleBefore time.Time) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimed []*shared.OutboxEntry
	err := NewTransactor(r.db).InTx(ctx, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		now := time.Now()
		var rows []models.OutboxEntryModel
		err := dueEntries(tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ?", ids), now, staleBefore).
			Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return err
		}

		got := make([]uuid.UUID, len(rows))
		for i := range rows {
			got[i] = rows[i].ID
			rows[i].Status = shared.OutboxStatusProcessing
			rows[i].UpdatedAt = now
		}
		err = tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", got).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error
		if err != nil {
			return err
		}
		claimed = outboxEntries(rows)
		return nil
	})
	return claimed, err
}

// Update stores the delivery state of an entry
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	return conn(ctx, r.db).Save(models.OutboxEntryModelFromDomain(entry)).Error
}

// DeleteSentBefore removes entries delivered before the cutoff
func (r *GormOutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	result := conn(ctx, r.db).
		Where("status = ? AND processed_at < ?", shared.OutboxStatusSent, before).
		Delete(&models.OutboxEntryModel{})
	return result.RowsAffected, result.Error
}

// CountByStatus returns the number of entries per status
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	type statusCount struct {
		Status shared.OutboxStatus
		Count  int64
	}

	var results []statusCount
	err := conn(ctx, r.db).
		Model(&models.OutboxEntryModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(results))
	for _, c := range results {
		counts[c.Status] = c.Count
	}
	return counts, nil
}

func outboxEntries(rows []models.OutboxEntryModel) []*shared.OutboxEntry {
	entries := make([]*shared.OutboxEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
