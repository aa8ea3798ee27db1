package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cppla/aiblog/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Open connects through dialector with the project's gorm settings. Driver
// errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
// Cascades and nullification are done by the services, not by foreign keys.
func Open(dialector gorm.Dialector, logLevel string) (*gorm.DB, error) {
	// Configure GORM logger: derive level from app LogLevel and raise slow-sql threshold to reduce noise
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   gLogger,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return models.Now() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// InitDatabase establishes a connection to MySQL using configuration values and performs automatic migrations.
func InitDatabase(cfg AppConfig) *gorm.DB {
	if db != nil {
		return db
	}

	dsn := cfg.DatabaseURI
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
	}

	var err error
	db, err = Open(mysql.Open(dsn), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	// Keep the pool small and recycle idle connections before the server's wait_timeout does.
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	// Ping at boot so network/auth problems show up before the first query.
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("auto migration failed: %v", err)
	}
	return db
}

// Migrate creates or extends the schema for every blog model.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
	)
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "info", "", "warn":
		// Suppress per-statement logs; keep warnings (including slow SQL)
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
