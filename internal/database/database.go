package database

import (
	"fmt"

	"github.com/noticeboard/backend/internal/config"
	"github.com/noticeboard/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// GormConfig is shared with the in-memory test databases so both translate
// driver errors such as unique violations into gorm sentinels.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Group{},
		&models.Notice{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// Access code lookups match on the canonical form so legacy rows stay
	// reachable.
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_groups_access_code_canonical ON groups (UPPER(TRIM(access_code)))").Error
}
