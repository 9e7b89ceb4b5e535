package service

import (
	"fmt"
	"strings"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ListingService 房源服务
type ListingService struct {
	listingRepo repository.ListingRepository
	reviewRepo  repository.ReviewRepository
}

// NewListingService 创建房源服务
func NewListingService(listingRepo repository.ListingRepository, reviewRepo repository.ReviewRepository) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		reviewRepo:  reviewRepo,
	}
}

// ListingInput 房源创建/更新输入
type ListingInput struct {
	Title        string
	AddressLine  string
	City         string
	District     string
	Description  string
	RentAmount   models.Money
	RentCurrency string
	RoomCount    int
	ContactEmail string
	ContactPhone string
	ImageURLs    []string
}

// ListPublic 查询公开房源列表
func (s *ListingService) ListPublic(filter repository.ListingListFilter) ([]models.Listing, int64, error) {
	filter.OnlyPublic = true
	return s.listingRepo.List(filter)
}

// ListAdmin 查询后台房源列表
func (s *ListingService) ListAdmin(filter repository.ListingListFilter) ([]models.Listing, int64, error) {
	filter.OnlyPublic = false
	return s.listingRepo.List(filter)
}

// GetPublic 获取公开房源详情（隐藏状态的房源对外不可见）
func (s *ListingService) GetPublic(id uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(id, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if listing == nil || listing.Status != constants.ListingStatusPublished {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// GetAdmin 获取后台房源详情
func (s *ListingService) GetAdmin(id uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(id, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// Create 创建房源
func (s *ListingService) Create(input ListingInput, ownerID uint) (*models.Listing, error) {
	listing := &models.Listing{
		Title:        strings.TrimSpace(input.Title),
		AddressLine:  strings.TrimSpace(input.AddressLine),
		City:         strings.TrimSpace(input.City),
		District:     strings.TrimSpace(input.District),
		Description:  input.Description,
		RentAmount:   input.RentAmount,
		RentCurrency: normalizeCurrency(input.RentCurrency),
		RoomCount:    input.RoomCount,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Status:       constants.ListingStatusPublished,
	}
	if ownerID > 0 {
		listing.OwnerUserID = &ownerID
	}
	if err := s.listingRepo.Create(listing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if err := s.replaceImages(listing.ID, input.ImageURLs); err != nil {
		return nil, err
	}
	return s.GetAdmin(listing.ID)
}

// Update 更新房源
func (s *ListingService) Update(id uint, input ListingInput) (*models.Listing, error) {
	listing, err := s.GetAdmin(id)
	if err != nil {
		return nil, err
	}
	listing.Title = strings.TrimSpace(input.Title)
	listing.AddressLine = strings.TrimSpace(input.AddressLine)
	listing.City = strings.TrimSpace(input.City)
	listing.District = strings.TrimSpace(input.District)
	listing.Description = input.Description
	listing.RentAmount = input.RentAmount
	listing.RentCurrency = normalizeCurrency(input.RentCurrency)
	listing.RoomCount = input.RoomCount
	listing.ContactEmail = strings.TrimSpace(input.ContactEmail)
	listing.ContactPhone = strings.TrimSpace(input.ContactPhone)
	listing.Images = nil

	if err := s.listingRepo.Update(listing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if input.ImageURLs != nil {
		if err := s.replaceImages(listing.ID, input.ImageURLs); err != nil {
			return nil, err
		}
	}
	return s.GetAdmin(listing.ID)
}

// SetStatus 切换房源状态
func (s *ListingService) SetStatus(id, _ uint, status string) error {
	switch status {
	case constants.ListingStatusPublished, constants.ListingStatusHidden:
	default:
		return ErrStatusTransition
	}
	listing, err := s.GetAdmin(id)
	if err != nil {
		return err
	}
	if listing.Status == status {
		return nil
	}
	if err := s.listingRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	return nil
}

// RefreshRatingStats 重算房源冗余评分
func (s *ListingService) RefreshRatingStats(listingID uint) error {
	count, avg, err := s.reviewRepo.ApprovedStats(listingID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	average := models.NewMoneyFromDecimal(decimal.NewFromFloat(avg))
	if err := s.listingRepo.UpdateRatingStats(listingID, count, average); err != nil {
		return fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	return nil
}

func (s *ListingService) replaceImages(listingID uint, urls []string) error {
	images := make([]models.ListingImage, 0, len(urls))
	for _, raw := range urls {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			images = append(images, models.ListingImage{URL: trimmed})
		}
	}
	if err := s.listingRepo.ReplaceImages(listingID, images); err != nil {
		return fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	return nil
}

func normalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return "EUR"
	}
	return normalized
}
