package public

import (
	"strconv"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitContactEditRequest 提交联系方式修改申请
type SubmitContactEditRequest struct {
	ListingID uint   `json:"listing_id" binding:"required"`
	Field     string `json:"field" binding:"required"`
	NewValue  string `json:"new_value" binding:"required"`
	Reason    string `json:"reason"`
}

// SubmitContactEdit 提交联系方式修改申请（需登录）
func (h *Handler) SubmitContactEdit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req SubmitContactEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	request, err := h.ContactEditService.Submit(service.SubmitContactEditInput{
		ListingID: req.ListingID,
		UserID:    userID,
		Field:     req.Field,
		NewValue:  req.NewValue,
		Reason:    req.Reason,
	})
	if err != nil {
		respondContactEditSubmitError(c, err)
		return
	}

	response.Success(c, request)
}

// GetMyContactEdits 查询自己的修改申请
func (h *Handler) GetMyContactEdits(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	requests, total, err := h.ContactEditService.ListMine(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, requests, response.NewPagination(page, pageSize, total))
}
