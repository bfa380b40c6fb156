package db

import (
	"context"
	"fmt"
	"time"

	"fitsocial/config"
	"fitsocial/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

var ORM *gorm.DB

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			zap.NewStdLog(logger.Log),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		// unique violations surface as gorm.ErrDuplicatedKey on both drivers
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// ConnectDB opens the configured store, registers read replicas and migrates.
func ConnectDB(conf *config.ConfigSchema) (*gorm.DB, error) {
	if ORM != nil {
		logger.Info("ORM is already initialized")
		return ORM, nil
	}
	if conf == nil {
		return nil, fmt.Errorf("AppConfig is not loaded")
	}

	var (
		database *gorm.DB
		err      error
	)
	switch conf.Databases.Driver {
	case "sqlite":
		database, err = OpenSQLite(conf.Databases.SQLitePath)
		if err != nil {
			return nil, err
		}
	case "postgres":
		if conf.Databases.Master.Host == "" {
			return nil, fmt.Errorf("master database configuration is missing")
		}
		database, err = gorm.Open(postgres.Open(dsnFromConfig(conf.Databases.Master)), gormConfig())
		if err != nil {
			return nil, err
		}

		replicas := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
		for _, r := range conf.Databases.Replicas {
			replicas = append(replicas, postgres.Open(dsnFromConfig(r)))
		}
		if len(replicas) > 0 {
			err = database.Use(dbresolver.Register(dbresolver.Config{
				Replicas: replicas,
				Policy:   dbresolver.RandomPolicy{},
			}))
			if err != nil {
				return nil, fmt.Errorf("failed to register replicas: %w", err)
			}
		}

		sqlDB, err := database.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Databases.Driver)
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}

	logger.Info("database ready", zap.String("driver", conf.Databases.Driver), zap.Int("replicas", len(conf.Databases.Replicas)))
	ORM = database
	return database, nil
}

// OpenSQLite opens a SQLite database. In-memory databases are pinned to a
// single connection so every statement sees the same schema.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	database, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return database, nil
}

// GetReadOnlyDB returns a handle routed to replicas
func GetReadOnlyDB(ctx context.Context, database *gorm.DB) *gorm.DB {
	return database.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB returns a handle routed to the master
func GetWriteDB(ctx context.Context, database *gorm.DB) *gorm.DB {
	return database.WithContext(ctx).Clauses(dbresolver.Write)
}
