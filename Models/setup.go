package Models

import (
	"fmt"
	"time"

	mysqlcfg "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBConfig selects and configures the database backend.
type DBConfig struct {
	Driver   string // sqlite, postgres, mysql
	Path     string // sqlite file path
	DSN      string // overrides the discrete settings below
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Debug    bool
}

// Connect opens the configured database and tunes the connection pool.
func Connect(cfg DBConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{TranslateError: true}
	if !cfg.Debug {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer; serialising through one connection keeps
		// the counter transactions from hitting SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info().Str("driver", cfg.Driver).Msg("database connected")
	return db, nil
}

func dialectorFor(cfg DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if cfg.DSN != "" {
			path = cfg.DSN
		}
		return sqlite.Open(path), nil
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			port := cfg.Port
			if port == "" {
				port = "5432"
			}
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.Host, cfg.User, cfg.Password, cfg.Name, port)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = MySQLDSN(cfg)
		}
		return mysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// MySQLDSN builds a DSN from discrete settings with parseTime enabled.
func MySQLDSN(cfg DBConfig) string {
	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	mc := mysqlcfg.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + port
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Migrate creates or updates every table, parents before children.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Client{}, &Product{}, &DocumentCounter{}); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}
	if err := db.AutoMigrate(&Contract{}, &ContractLine{}); err != nil {
		return fmt.Errorf("failed to migrate contracts: %w", err)
	}
	if err := db.AutoMigrate(&Invoice{}, &InvoiceLine{}, &Payment{}); err != nil {
		return fmt.Errorf("failed to migrate invoices: %w", err)
	}
	return nil
}
