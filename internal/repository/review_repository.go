package repository

import (
	"errors"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository 点评数据访问接口
type ReviewRepository interface {
	Create(review *models.Review) error
	GetByID(id uint) (*models.Review, error)
	GetByListingAndUser(listingID, userID uint) (*models.Review, error)
	List(filter ReviewListFilter) ([]models.Review, int64, error)
	Moderate(id uint, status string, moderatorID uint, note string, at time.Time) error
	ApprovedStats(listingID uint) (int, float64, error)
	CountByStatus(status string) (int64, error)
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建点评仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Create 创建点评
func (r *GormReviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

// GetByID 按主键获取点评
func (r *GormReviewRepository) GetByID(id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// GetByListingAndUser 获取用户对某房源的点评
func (r *GormReviewRepository) GetByListingAndUser(listingID, userID uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.Where("listing_id = ? AND user_id = ?", listingID, userID).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// List 查询点评列表
func (r *GormReviewRepository) List(filter ReviewListFilter) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{})
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

	var reviews []models.Review
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Moderate 审核点评（仅允许从 pending 出发，保证状态机单向）
func (r *GormReviewRepository) Moderate(id uint, status string, moderatorID uint, note string, at time.Time) error {
	result := r.db.Model(&models.Review{}).
		Where("id = ? AND status = ?", id, constants.ReviewStatusPending).
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

// ApprovedStats 统计房源已通过点评数与平均评分
func (r *GormReviewRepository) ApprovedStats(listingID uint) (int, float64, error) {
	var row struct {
		Count int64
		Avg   float64
	}
	if err := r.db.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
		Where("listing_id = ? AND status = ?", listingID, constants.ReviewStatusApproved).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return int(row.Count), row.Avg, nil
}

// CountByStatus 按状态统计点评数量
func (r *GormReviewRepository) CountByStatus(status string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Review{}).
		Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
