package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/repository"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListingRequest 房源创建/更新请求
type ListingRequest struct {
	Title        string       `json:"title" binding:"required"`
	AddressLine  string       `json:"address_line" binding:"required"`
	City         string       `json:"city" binding:"required"`
	District     string       `json:"district"`
	Description  string       `json:"description"`
	RentAmount   models.Money `json:"rent_amount"`
	RentCurrency string       `json:"rent_currency"`
	RoomCount    int          `json:"room_count"`
	ContactEmail string       `json:"contact_email"`
	ContactPhone string       `json:"contact_phone"`
	ImageURLs    []string     `json:"image_urls"`
}

// SetListingStatusRequest 房源状态变更请求
type SetListingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r ListingRequest) toServiceInput() service.ListingInput {
	return service.ListingInput{
		Title:        r.Title,
		AddressLine:  r.AddressLine,
		City:         r.City,
		District:     r.District,
		Description:  r.Description,
		RentAmount:   r.RentAmount,
		RentCurrency: r.RentCurrency,
		RoomCount:    r.RoomCount,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		ImageURLs:    r.ImageURLs,
	}
}

// GetAdminListings 后台查询房源列表
func (h *Handler) GetAdminListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	listings, total, err := h.ListingService.ListAdmin(repository.ListingListFilter{
		Page:       page,
		PageSize:   pageSize,
		City:       strings.TrimSpace(c.Query("city")),
		District:   strings.TrimSpace(c.Query("district")),
		Search:     strings.TrimSpace(c.Query("search")),
		Status:     strings.TrimSpace(c.Query("status")),
		WithImages: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, listings, response.NewPagination(page, pageSize, total))
}

// GetAdminListing 后台获取房源详情
func (h *Handler) GetAdminListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	listing, err := h.ListingService.GetAdmin(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			respondError(c, response.CodeNotFound, "error.listing_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, listing)
}

// CreateListing 创建房源
func (h *Handler) CreateListing(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	listing, err := h.ListingService.Create(req.toServiceInput(), adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, listing)
}

// UpdateListing 更新房源
func (h *Handler) UpdateListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	listing, err := h.ListingService.Update(uint(id), req.toServiceInput())
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			respondError(c, response.CodeNotFound, "error.listing_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, listing)
}

// SetListingStatus 切换房源上下架状态
func (h *Handler) SetListingStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req SetListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.ListingService.SetStatus(uint(id), adminID, strings.TrimSpace(req.Status)); err != nil {
		switch {
		case errors.Is(err, service.ErrListingNotFound):
			respondError(c, response.CodeNotFound, "error.listing_not_found", nil)
		case errors.Is(err, service.ErrStatusTransition):
			respondError(c, response.CodeBadRequest, "error.status_transition", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, gin.H{"id": id, "status": strings.TrimSpace(req.Status)})
}
