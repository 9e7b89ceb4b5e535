package repository

import (
	"errors"
	"time"

	"github.com/roomnest-next/internal/models"

	"gorm.io/gorm"
)

// OtpRecordRepository 邮箱验证码记录数据访问接口
type OtpRecordRepository interface {
	// CreateSuperseding 创建新记录并在同一事务内作废该邮箱此前的有效记录
	CreateSuperseding(record *models.OtpRecord) error
	GetActiveByEmail(emailNorm string, now time.Time) (*models.OtpRecord, error)
	IncrementAttempts(id uint) (int, error)
	MarkConsumed(id uint, at time.Time) error
	DeleteCreatedBefore(cutoff time.Time) (int64, error)
}

// GormOtpRecordRepository GORM 实现
type GormOtpRecordRepository struct {
	db *gorm.DB
}

// NewOtpRecordRepository 创建验证码记录仓库
func NewOtpRecordRepository(db *gorm.DB) *GormOtpRecordRepository {
	return &GormOtpRecordRepository{db: db}
}

// CreateSuperseding 创建新记录并作废旧记录
// 单邮箱同一时刻只有一条有效记录：先作废再插入，整体在一个事务里。
func (r *GormOtpRecordRepository) CreateSuperseding(record *models.OtpRecord) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OtpRecord{}).
			Where("email_norm = ? AND consumed_at IS NULL AND superseded_at IS NULL",
				record.EmailNorm).
			Update("superseded_at", now).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// GetActiveByEmail 获取邮箱当前的有效记录
// 只看未消费、未作废且未过期的最新一条；尝试次数耗尽的记录也会返回，
// 由上层据此拒绝继续验证（耗尽状态粘滞到过期或被替换）。
func (r *GormOtpRecordRepository) GetActiveByEmail(emailNorm string, now time.Time) (*models.OtpRecord, error) {
	var record models.OtpRecord
	if err := r.db.Where(
		"email_norm = ? AND consumed_at IS NULL AND superseded_at IS NULL AND expires_at > ?",
		emailNorm, now).
		Order("id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// IncrementAttempts 失败计数加一，返回自增后的次数
func (r *GormOtpRecordRepository) IncrementAttempts(id uint) (int, error) {
	if err := r.db.Model(&models.OtpRecord{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		return 0, err
	}
	var record models.OtpRecord
	if err := r.db.Select("attempts").First(&record, id).Error; err != nil {
		return 0, err
	}
	return record.Attempts, nil
}

// MarkConsumed 标记记录已消费
// 带条件更新保证同一条验证码并发验证时只有一个请求成功。
func (r *GormOtpRecordRepository) MarkConsumed(id uint, at time.Time) error {
	result := r.db.Model(&models.OtpRecord{}).
		Where("id = ? AND consumed_at IS NULL AND superseded_at IS NULL", id).
		Update("consumed_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCreatedBefore 清理历史记录
func (r *GormOtpRecordRepository) DeleteCreatedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.OtpRecord{})
	return result.RowsAffected, result.Error
}
