package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storyreel/internal/config"
)

// Client 持有原生连接池与 gorm 句柄
type Client struct {
	sqlDB  *sql.DB
	gormDB *gorm.DB
}

// New 打开 MySQL 连接池并初始化 gorm
func New(cfg *config.MySQLConfig) (*Client, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	maxOpen, maxIdle, lifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: db}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init gorm: %w", err)
	}

	return &Client{sqlDB: db, gormDB: gdb}, nil
}

// DB 返回 gorm 句柄
func (c *Client) DB() *gorm.DB {
	return c.gormDB
}

// Migrate 自动建表
func (c *Client) Migrate(models ...interface{}) error {
	return c.gormDB.AutoMigrate(models...)
}

// Ping 就绪检查
func (c *Client) Ping(ctx context.Context) error {
	return c.sqlDB.PingContext(ctx)
}

// Close 关闭连接池
func (c *Client) Close() error {
	return c.sqlDB.Close()
}
