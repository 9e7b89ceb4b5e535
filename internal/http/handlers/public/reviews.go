package public

import (
	"strconv"
	"time"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitReviewRequest 提交点评请求
type SubmitReviewRequest struct {
	ListingID   uint       `json:"listing_id" binding:"required"`
	Rating      int        `json:"rating" binding:"required"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	TenancyFrom *time.Time `json:"tenancy_from"`
	TenancyTo   *time.Time `json:"tenancy_to"`
}

// SubmitReview 提交房源点评（需登录）
func (h *Handler) SubmitReview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	review, err := h.ReviewService.Submit(service.SubmitReviewInput{
		ListingID:   req.ListingID,
		UserID:      userID,
		Rating:      req.Rating,
		Title:       req.Title,
		Body:        req.Body,
		TenancyFrom: req.TenancyFrom,
		TenancyTo:   req.TenancyTo,
	})
	if err != nil {
		respondReviewSubmitError(c, err)
		return
	}

	response.Success(c, review)
}

// GetListingReviews 查询房源已通过点评
func (h *Handler) GetListingReviews(c *gin.Context) {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || listingID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	reviews, total, err := h.ReviewService.ListApproved(uint(listingID), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, reviews, response.NewPagination(page, pageSize, total))
}

// GetMyReviews 查询自己的点评（含待审与驳回）
func (h *Handler) GetMyReviews(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	reviews, total, err := h.ReviewService.ListMine(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, reviews, response.NewPagination(page, pageSize, total))
}
