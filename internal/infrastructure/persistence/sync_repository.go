package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/persistence/models"
)

// SyncRepository persists batches of one mirrored entity type, inserting new
// rows and merging changed fields into existing rows. The insert-or-merge
// decision is driven by the model's key descriptor; a nil descriptor selects
// append-only semantics.
type SyncRepository[T any] struct {
	db  *gorm.DB
	key *models.KeyDescriptor[T]
}

// NewSyncRepository creates a repository for one entity type. Pass a nil
// descriptor for keyless, append-only types.
func NewSyncRepository[T any](db *gorm.DB, key *models.KeyDescriptor[T]) *SyncRepository[T] {
	return &SyncRepository[T]{db: db, key: key}
}

// Upsert persists a batch in a single transaction. Keyed rows are looked up by
// their key and either created or overwritten field for field; keyless rows
// are always inserted. An empty batch is a no-op. Persistence errors propagate
// to the caller; retry and skip policy belongs to the sync scheduler.
func (r *SyncRepository[T]) Upsert(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.key == nil {
			// Insert a copy: Create backfills the surrogate primary key into
			// the slice it is given, which would make a repeat append of the
			// same batch collide on explicit keys and mutate the caller's data.
			batch := make([]T, len(items))
			copy(batch, items)
			if err := tx.Create(&batch).Error; err != nil {
				return fmt.Errorf("append batch: %w", err)
			}
			return nil
		}

		for i := range items {
			if err := r.upsertOne(tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertOne inserts or overwrites a single keyed row inside the batch transaction
func (r *SyncRepository[T]) upsertOne(tx *gorm.DB, item *T) error {
	keyValue := r.key.Value(item)
	cond := map[string]any{r.key.Column: keyValue}

	var existing T
	err := tx.Where(cond).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("insert row %v: %w", keyValue, err)
		}
	case err != nil:
		return fmt.Errorf("lookup row %v: %w", keyValue, err)
	default:
		// Select("*") forces every column, including zero values, so the
		// stored row becomes a field-for-field copy of the fetched one.
		if err := tx.Model(new(T)).Where(cond).Select("*").Updates(item).Error; err != nil {
			return fmt.Errorf("update row %v: %w", keyValue, err)
		}
	}
	return nil
}
