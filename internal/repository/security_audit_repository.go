package repository

import (
	"time"

	"github.com/roomnest-next/internal/models"

	"gorm.io/gorm"
)

// OutcomeCountEntry 按结果分组的计数条目
type OutcomeCountEntry struct {
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

// SecurityAuditRepository 安全审计事件数据访问接口
type SecurityAuditRepository interface {
	Append(event *models.SecurityAuditEvent) error
	List(filter AuditEventListFilter) ([]models.SecurityAuditEvent, int64, error)
	CountSince(eventType, outcome string, since time.Time) (int64, error)
	CountGroupedByOutcome(eventType string, since time.Time) ([]OutcomeCountEntry, error)
	Recent(limit int) ([]models.SecurityAuditEvent, error)
	DeleteBefore(cutoff time.Time) (int64, error)
}

// GormSecurityAuditRepository GORM 实现
type GormSecurityAuditRepository struct {
	db *gorm.DB
}

// NewSecurityAuditRepository 创建安全审计仓库
func NewSecurityAuditRepository(db *gorm.DB) *GormSecurityAuditRepository {
	return &GormSecurityAuditRepository{db: db}
}

// Append 追加审计事件
func (r *GormSecurityAuditRepository) Append(event *models.SecurityAuditEvent) error {
	return r.db.Create(event).Error
}

// List 查询审计事件列表
func (r *GormSecurityAuditRepository) List(filter AuditEventListFilter) ([]models.SecurityAuditEvent, int64, error) {
	query := r.db.Model(&models.SecurityAuditEvent{})
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}
	if filter.EmailNorm != "" {
		query = query.Where("email_norm = ?", filter.EmailNorm)
	}
	if filter.IPKey != "" {
		query = query.Where("ip_key = ?", filter.IPKey)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.SecurityAuditEvent
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// CountSince 统计窗口期内指定事件与结果的数量
func (r *GormSecurityAuditRepository) CountSince(eventType, outcome string, since time.Time) (int64, error) {
	query := r.db.Model(&models.SecurityAuditEvent{}).
		Where("event_type = ? AND created_at >= ?", eventType, since)
	if outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountGroupedByOutcome 统计窗口期内指定事件按结果分组的数量
func (r *GormSecurityAuditRepository) CountGroupedByOutcome(eventType string, since time.Time) ([]OutcomeCountEntry, error) {
	var entries []OutcomeCountEntry
	if err := r.db.Model(&models.SecurityAuditEvent{}).
		Select("outcome, COUNT(*) AS count").
		Where("event_type = ? AND created_at >= ?", eventType, since).
		Group("outcome").
		Order("count desc").
		Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Recent 获取最近的审计事件
func (r *GormSecurityAuditRepository) Recent(limit int) ([]models.SecurityAuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.SecurityAuditEvent
	if err := r.db.Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteBefore 清理历史审计事件
func (r *GormSecurityAuditRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.SecurityAuditEvent{})
	return result.RowsAffected, result.Error
}
