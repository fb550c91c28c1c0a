package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const grammarCacheKey = "grammar:all"

// GrammarRepository 语法点只读访问。Redis 可选，只缓存参考数据
type GrammarRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	TTL   time.Duration
}

func NewGrammarRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *GrammarRepository {
	return &GrammarRepository{DB: db, Redis: rdb, TTL: ttl}
}

func (r *GrammarRepository) WithTx(tx *gorm.DB) *GrammarRepository {
	return &GrammarRepository{DB: tx, Redis: r.Redis, TTL: r.TTL}
}

// List 按等级过滤，level 为空时返回全部
func (r *GrammarRepository) List(ctx context.Context, level string) ([]model.GrammarPoint, error) {
	if r.Redis != nil {
		all, err := r.cachedAll(ctx)
		if err != nil {
			return nil, err
		}
		if level == "" {
			return all, nil
		}
		filtered := make([]model.GrammarPoint, 0, len(all))
		for _, g := range all {
			if string(g.Level) == level {
				filtered = append(filtered, g)
			}
		}
		return filtered, nil
	}

	var points []model.GrammarPoint
	query := r.DB.WithContext(ctx).Order("id ASC")
	if level != "" {
		query = query.Where("level = ?", level)
	}
	if err := query.Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

func (r *GrammarRepository) FindByID(ctx context.Context, id string) (*model.GrammarPoint, error) {
	var g model.GrammarPoint
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrGrammarNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindByIDs 返回 id -> 语法点，不存在的 id 直接忽略
func (r *GrammarRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.GrammarPoint, error) {
	out := make(map[string]model.GrammarPoint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var points []model.GrammarPoint
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&points).Error; err != nil {
		return nil, err
	}
	for _, p := range points {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GrammarRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&model.GrammarPoint{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// cachedAll 缓存读取失败时回源数据库，不影响请求
func (r *GrammarRepository) cachedAll(ctx context.Context) ([]model.GrammarPoint, error) {
	raw, err := r.Redis.Get(ctx, grammarCacheKey).Bytes()
	if err == nil {
		var points []model.GrammarPoint
		if jsonErr := json.Unmarshal(raw, &points); jsonErr == nil {
			return points, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Log.Warn("grammar cache read failed", zap.Error(err))
	}

	var points []model.GrammarPoint
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&points).Error; err != nil {
		return nil, err
	}

	data, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("marshal grammar cache: %w", err)
	}
	if err := r.Redis.Set(ctx, grammarCacheKey, data, r.TTL).Err(); err != nil {
		logger.Log.Warn("grammar cache write failed", zap.Error(err))
	}
	return points, nil
}

// InvalidateCache 服务启动时调用，丢弃迁移前写入的缓存
func (r *GrammarRepository) InvalidateCache(ctx context.Context) error {
	if r.Redis == nil {
		return nil
	}
	return r.Redis.Del(ctx, grammarCacheKey).Err()
}
