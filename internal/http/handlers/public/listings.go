package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/repository"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetListings 查询公开房源列表
func (h *Handler) GetListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	listings, total, err := h.ListingService.ListPublic(repository.ListingListFilter{
		Page:       page,
		PageSize:   pageSize,
		City:       strings.TrimSpace(c.Query("city")),
		District:   strings.TrimSpace(c.Query("district")),
		Search:     strings.TrimSpace(c.Query("search")),
		WithImages: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, listings, response.NewPagination(page, pageSize, total))
}

// GetListing 获取公开房源详情
func (h *Handler) GetListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	listing, err := h.ListingService.GetPublic(uint(id))
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
