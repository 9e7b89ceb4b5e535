package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/repository"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ModerateRequest 审核动作请求
type ModerateRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// GetAdminReviews 后台查询点评列表
func (h *Handler) GetAdminReviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	listingID, _ := strconv.ParseUint(c.Query("listing_id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	reviews, total, err := h.ReviewService.ListAdmin(repository.ReviewListFilter{
		Page:      page,
		PageSize:  pageSize,
		ListingID: uint(listingID),
		UserID:    uint(userID),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, reviews, response.NewPagination(page, pageSize, total))
}

// ModerateReview 审核点评
func (h *Handler) ModerateReview(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	review, err := h.ReviewService.Moderate(uint(id), req.Approve, adminID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			respondError(c, response.CodeNotFound, "error.review_not_found", nil)
		case errors.Is(err, service.ErrStatusTransition):
			respondError(c, response.CodeBadRequest, "error.status_transition", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, review)
}
