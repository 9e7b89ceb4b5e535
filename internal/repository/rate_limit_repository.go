package repository

import (
	"time"

	"github.com/roomnest-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BucketTopEntry 限流桶热点统计条目
type BucketTopEntry struct {
	Scope string `json:"scope"`
	Key   string `json:"key"`
	Hits  int64  `json:"hits"`
}

// RateLimitRepository 限流计数数据访问接口
type RateLimitRepository interface {
	// Hit 对 (scope, key, windowStart) 桶做原子自增，返回自增后的计数
	Hit(scope, key string, windowStart time.Time) (int64, error)
	TopBuckets(since time.Time, limit int) ([]BucketTopEntry, error)
	DeleteWindowsBefore(cutoff time.Time) (int64, error)
}

// GormRateLimitRepository GORM 实现
type GormRateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository 创建限流计数仓库
func NewRateLimitRepository(db *gorm.DB) *GormRateLimitRepository {
	return &GormRateLimitRepository{db: db}
}

// Hit 原子 upsert 自增
// 依赖数据库的 ON CONFLICT DO UPDATE + RETURNING，sqlite 与 postgres 均支持，
// 多实例并发下计数不丢。
func (r *GormRateLimitRepository) Hit(scope, key string, windowStart time.Time) (int64, error) {
	bucket := models.RateLimitBucket{
		Scope:       scope,
		Key:         key,
		WindowStart: windowStart,
		Hits:        1,
	}
	err := r.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "scope"}, {Name: "key"}, {Name: "window_start"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"hits":       gorm.Expr("rate_limit_buckets.hits + 1"),
				"updated_at": time.Now(),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "hits"}}},
	).Create(&bucket).Error
	if err != nil {
		return 0, err
	}
	return bucket.Hits, nil
}

// TopBuckets 统计窗口期内命中量最高的桶（遥测热点来源）
func (r *GormRateLimitRepository) TopBuckets(since time.Time, limit int) ([]BucketTopEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []BucketTopEntry
	if err := r.db.Model(&models.RateLimitBucket{}).
		Select("scope, key, SUM(hits) AS hits").
		Where("window_start >= ?", since).
		Group("scope, key").
		Order("hits desc").
		Limit(limit).
		Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteWindowsBefore 清理过期窗口
func (r *GormRateLimitRepository) DeleteWindowsBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("window_start < ?", cutoff).Delete(&models.RateLimitBucket{})
	return result.RowsAffected, result.Error
}
