package repository

import (
	"errors"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"

	"gorm.io/gorm"
)

// ContactEditRequestRepository 联系方式修改申请数据访问接口
type ContactEditRequestRepository interface {
	Create(request *models.ContactEditRequest) error
	GetByID(id uint) (*models.ContactEditRequest, error)
	List(filter ContactEditListFilter) ([]models.ContactEditRequest, int64, error)
	HasPending(listingID uint, field string) (bool, error)
	Moderate(id uint, status string, moderatorID uint, note string, at time.Time) error
	CountByStatus(status string) (int64, error)
}

// GormContactEditRequestRepository GORM 实现
type GormContactEditRequestRepository struct {
	db *gorm.DB
}

// NewContactEditRequestRepository 创建联系方式修改申请仓库
func NewContactEditRequestRepository(db *gorm.DB) *GormContactEditRequestRepository {
	return &GormContactEditRequestRepository{db: db}
}

// Create 创建修改申请
func (r *GormContactEditRequestRepository) Create(request *models.ContactEditRequest) error {
	return r.db.Create(request).Error
}

// GetByID 按主键获取修改申请
func (r *GormContactEditRequestRepository) GetByID(id uint) (*models.ContactEditRequest, error) {
	var request models.ContactEditRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// List 查询修改申请列表
func (r *GormContactEditRequestRepository) List(filter ContactEditListFilter) ([]models.ContactEditRequest, int64, error) {
	query := r.db.Model(&models.ContactEditRequest{})
	if filter.ListingID > 0 {
		query = query.Where("listing_id = ?", filter.ListingID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.ContactEditRequest
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// HasPending 判断同一房源同一字段是否已有待审申请
func (r *GormContactEditRequestRepository) HasPending(listingID uint, field string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.ContactEditRequest{}).
		Where("listing_id = ? AND field = ? AND status = ?",
			listingID, field, constants.ContactEditStatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Moderate 审核修改申请（仅允许从 pending 出发）
func (r *GormContactEditRequestRepository) Moderate(id uint, status string, moderatorID uint, note string, at time.Time) error {
	result := r.db.Model(&models.ContactEditRequest{}).
		Where("id = ? AND status = ?", id, constants.ContactEditStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"moderated_by": moderatorID,
			"moderated_at": at,
			"reject_note":  note,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByStatus 按状态统计申请数量
func (r *GormContactEditRequestRepository) CountByStatus(status string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ContactEditRequest{}).
		Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
