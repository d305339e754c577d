package postgres

import (
	"time"

	"eotile/internal/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the global database connection
var DB *gorm.DB

// Init initializes the database connection and sets the global DB variable
func Init(url string) (*gorm.DB, error) {
	// Route GORM logs through zap with a higher slow SQL threshold
	gormLogger := logger.New(
		zap.NewStdLog(zap.L().Named("gorm")),
		logger.Config{
			SlowThreshold: time.Millisecond * 500,
			LogLevel:      logger.Warn,
		},
	)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	// AutoMigrate models
	if err := db.AutoMigrate(&model.TilePG{}); err != nil {
		return nil, errors.Wrap(err, "migrate tile model")
	}

	// Set global DB variable
	DB = db

	return db, nil
}

// Close closes the global database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	zap.S().Info("Closing PostgreSQL connection...")
	return sqlDB.Close()
}
