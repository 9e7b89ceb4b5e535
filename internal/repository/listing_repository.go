package repository

import (
	"errors"
	"strings"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"

	"gorm.io/gorm"
)

// ListingRepository 房源数据访问接口
type ListingRepository interface {
	Create(listing *models.Listing) error
	GetByID(id uint, withImages bool) (*models.Listing, error)
	List(filter ListingListFilter) ([]models.Listing, int64, error)
	Update(listing *models.Listing) error
	UpdateStatus(id uint, status string) error
	UpdateContactField(id uint, field, value string) error
	UpdateRatingStats(id uint, reviewCount int, average models.Money) error
	ReplaceImages(listingID uint, images []models.ListingImage) error
}

// GormListingRepository GORM 实现
type GormListingRepository struct {
	db *gorm.DB
}

// NewListingRepository 创建房源仓库
func NewListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// Create 创建房源
func (r *GormListingRepository) Create(listing *models.Listing) error {
	return r.db.Create(listing).Error
}

// GetByID 按主键获取房源
func (r *GormListingRepository) GetByID(id uint, withImages bool) (*models.Listing, error) {
	var listing models.Listing
	query := r.db
	if withImages {
		query = query.Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		})
	}
	if err := query.First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

// List 查询房源列表
func (r *GormListingRepository) List(filter ListingListFilter) ([]models.Listing, int64, error) {
	query := r.db.Model(&models.Listing{})
	if filter.OnlyPublic {
		query = query.Where("status = ?", constants.ListingStatusPublished)
	} else if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.District != "" {
		query = query.Where("district = ?", filter.District)
	}
	if keyword := strings.TrimSpace(filter.Search); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("title LIKE ? OR address_line LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.WithImages {
		query = query.Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		})
	}

	var listings []models.Listing
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Update 保存房源变更
func (r *GormListingRepository) Update(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

// UpdateStatus 更新房源状态
func (r *GormListingRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateContactField 更新联系方式字段（审核通过后调用）
func (r *GormListingRepository) UpdateContactField(id uint, field, value string) error {
	switch field {
	case constants.ContactEditFieldEmail, constants.ContactEditFieldPhone:
	default:
		return errors.New("unsupported contact field: " + field)
	}
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Update(field, value).Error
}

// UpdateRatingStats 更新冗余评分统计
func (r *GormListingRepository) UpdateRatingStats(id uint, reviewCount int, average models.Money) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
		"review_count":   reviewCount,
		"rating_average": average,
	}).Error
}

// ReplaceImages 整体替换房源图片
func (r *GormListingRepository) ReplaceImages(listingID uint, images []models.ListingImage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", listingID).
			Delete(&models.ListingImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ID = 0
			images[i].ListingID = listingID
			images[i].SortOrder = i
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
}
