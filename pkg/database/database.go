package database

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/pkg/logger"
	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed seed/grammar.yaml
var grammarSeed []byte

// Models 需要迁移的全部表
func Models() []interface{} {
	return []interface{}{
		&model.GrammarPoint{},
		&model.Exercise{},
		&model.Mistake{},
		&model.UserProficiency{},
		&model.DialogueSession{},
		&model.StudyStat{},
	}
}

// MySQLDSN 使用驱动自带的 Config 拼接 DSN，避免手工转义
func MySQLDSN(cfg *config.DatabaseConfig) string {
	mysqlCfg := mysqldriver.NewConfig()
	mysqlCfg.User = cfg.User
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.DBName
	mysqlCfg.ParseTime = cfg.ParseTime
	mysqlCfg.Loc = time.UTC
	if cfg.Charset != "" {
		mysqlCfg.Params = map[string]string{"charset": cfg.Charset}
	}
	return mysqlCfg.FormatDSN()
}

// Open 只建立连接，不迁移
func Open(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if mode == "debug" {
		logLevel = gormlogger.Info
	}
	gormCfg := &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(MySQLDSN(cfg))
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." && !strings.HasPrefix(cfg.SQLitePath, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		// SQLite 同时只允许一个写者，busy_timeout 让并发写排队而不是立即报错
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	db, err := Open(cfg, mode)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 建表并在语法表为空时写入内置语法数据
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Log.Info("Database migration completed")

	n, err := SeedGrammar(context.Background(), db)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Log.Info("Grammar seed inserted", zap.Int("count", n))
	}
	return nil
}

// LoadGrammarSeed 解析内置的语法数据
func LoadGrammarSeed() ([]model.GrammarPoint, error) {
	var points []model.GrammarPoint
	if err := yaml.Unmarshal(grammarSeed, &points); err != nil {
		return nil, fmt.Errorf("parse grammar seed: %w", err)
	}
	return points, nil
}

// SeedGrammar 仅当表为空时插入，返回插入条数
func SeedGrammar(ctx context.Context, db *gorm.DB) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.GrammarPoint{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	points, err := LoadGrammarSeed()
	if err != nil {
		return 0, err
	}
	if err := db.WithContext(ctx).Create(&points).Error; err != nil {
		return 0, fmt.Errorf("insert grammar seed: %w", err)
	}
	return len(points), nil
}
