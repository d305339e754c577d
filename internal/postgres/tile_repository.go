package postgres

import (
	"context"

	"eotile/internal/config"
	"eotile/internal/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TileRepository reads and writes tile rows.
type TileRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewTileRepository creates a repository on top of db.
func NewTileRepository(db *gorm.DB) *TileRepository {
	return &TileRepository{db: db, batchSize: config.SaveBatchSize}
}

// LoadAll returns every tile row that is not soft-deleted.
func (r *TileRepository) LoadAll(ctx context.Context) ([]*model.TilePG, error) {
	var rows []*model.TilePG
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load tiles")
	}
	return rows, nil
}

// SaveBatch upserts rows by primary key in batches of batchSize, each batch
// in its own transaction.
func (r *TileRepository) SaveBatch(ctx context.Context, rows []*model.TilePG) error {
	for i := 0; i < len(rows); i += r.batchSize {
		end := i + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return upsertTiles(tx, batch).Error
		})
		if err != nil {
			return errors.Wrapf(err, "save tiles %d-%d", i, end)
		}

		zap.S().Debugf("Saved batch of %d tiles to PostgreSQL (%d/%d)", len(batch), end, len(rows))
	}
	return nil
}

// Count returns the number of stored tiles.
func (r *TileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TilePG{}).Count(&n).Error
	return n, errors.Wrap(err, "count tiles")
}

func upsertTiles(tx *gorm.DB, rows []*model.TilePG) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rows)
}
