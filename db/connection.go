package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zzliekkas/qiniustorage/config"
)

// 数据库驱动类型常量
const (
	// MySQL 数据库
	MySQL = "mysql"
	// PostgreSQL 数据库
	PostgreSQL = "postgres"
	// SQLite 数据库
	SQLite = "sqlite"
)

// 配置项名称
const (
	KeyDriver          = "DB_DRIVER"
	KeyDSN             = "DB_DSN"
	KeyHost            = "DB_HOST"
	KeyPort            = "DB_PORT"
	KeyDatabase        = "DB_DATABASE"
	KeyUsername        = "DB_USERNAME"
	KeyPassword        = "DB_PASSWORD"
	KeyMaxOpenConns    = "DB_MAX_OPEN_CONNS"
	KeyMaxIdleConns    = "DB_MAX_IDLE_CONNS"
	KeyConnMaxLifetime = "DB_CONN_MAX_LIFETIME"
	KeyLogLevel        = "DB_LOG_LEVEL"
)

// 定义错误类型
var (
	// ErrUnsupportedDriver 不支持的驱动类型错误
	ErrUnsupportedDriver = errors.New("不支持的数据库驱动类型")
	// ErrInvalidConfiguration 无效的数据库配置
	ErrInvalidConfiguration = errors.New("无效的数据库配置")
)

// Config 数据库配置
type Config struct {
	// 驱动类型：mysql, postgres, sqlite
	Driver string `yaml:"driver" json:"driver"`

	// DSN 完整的连接串，设置后忽略下面的连接信息
	DSN string `yaml:"dsn" json:"dsn"`

	// 连接信息
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Database string `yaml:"database" json:"database"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// 其他连接参数
	Charset  string `yaml:"charset" json:"charset"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
	TimeZone string `yaml:"timezone" json:"timezone"`

	// 连接池配置
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`

	// 日志配置：silent, error, warn, info
	LogLevel      string        `yaml:"log_level" json:"log_level"`
	SlowThreshold time.Duration `yaml:"slow_threshold" json:"slow_threshold"`
}

// LoadConfig 通过配置解析器构造数据库配置，默认使用当前目录下的 SQLite 文件
func LoadConfig(r config.Resolver) (Config, error) {
	var (
		cfg Config
		err error
	)

	if cfg.Driver, err = config.ResolveString(r, KeyDriver, SQLite); err != nil {
		return Config{}, err
	}
	if cfg.DSN, err = config.ResolveString(r, KeyDSN, ""); err != nil {
		return Config{}, err
	}
	if cfg.Host, err = config.ResolveString(r, KeyHost, "localhost"); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = config.ResolveInt(r, KeyPort, 0); err != nil {
		return Config{}, err
	}
	if cfg.Database, err = config.ResolveString(r, KeyDatabase, "qiniustorage.db"); err != nil {
		return Config{}, err
	}
	if cfg.Username, err = config.ResolveString(r, KeyUsername, ""); err != nil {
		return Config{}, err
	}
	if cfg.Password, err = config.ResolveString(r, KeyPassword, ""); err != nil {
		return Config{}, err
	}
	if cfg.MaxOpenConns, err = config.ResolveInt(r, KeyMaxOpenConns, 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxIdleConns, err = config.ResolveInt(r, KeyMaxIdleConns, 0); err != nil {
		return Config{}, err
	}
	if cfg.ConnMaxLifetime, err = config.ResolveSeconds(r, KeyConnMaxLifetime, 3600); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = config.ResolveString(r, KeyLogLevel, "warn"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Open 根据配置建立数据库连接并设置连接池
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 200 * time.Millisecond
	}

	// 创建GORM配置
	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             cfg.SlowThreshold,
				LogLevel:                  logLevel(cfg.LogLevel),
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		),
	}

	gdb, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	// 配置连接池
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return gdb, nil
}

// Ping 检查数据库连接是否可用
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dialectorFor 根据配置选择方言
func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case MySQL:
		dsn := cfg.DSN
		if dsn == "" {
			charset := cfg.Charset
			if charset == "" {
				charset = "utf8mb4"
			}
			port := cfg.Port
			if port == 0 {
				port = 3306
			}
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s",
				cfg.Username,
				cfg.Password,
				cfg.Host,
				port,
				cfg.Database,
				charset,
				valueOr(cfg.TimeZone, "Local"),
			)
		}
		return mysqldriver.Open(dsn), nil

	case PostgreSQL:
		dsn := cfg.DSN
		if dsn == "" {
			port := cfg.Port
			if port == 0 {
				port = 5432
			}
			dsn = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
				cfg.Host,
				port,
				cfg.Username,
				cfg.Password,
				cfg.Database,
				valueOr(cfg.SSLMode, "disable"),
				valueOr(cfg.TimeZone, "UTC"),
			)
		}
		return postgres.Open(dsn), nil

	case SQLite, "sqlite3":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Database
		}
		if dsn == "" {
			return nil, fmt.Errorf("%w: SQLite 需要数据库文件", ErrInvalidConfiguration)
		}
		return sqlite.Open(dsn), nil

	case "":
		return nil, fmt.Errorf("%w: 未指定驱动", ErrInvalidConfiguration)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func valueOr(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
