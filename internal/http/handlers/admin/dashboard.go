package admin

import (
	"github.com/roomnest-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboard 后台工作台概览
// 汇总待处理事项，审核队列为空时也返回零值字段。
func (h *Handler) GetDashboard(c *gin.Context) {
	pendingReviews, err := h.ReviewService.PendingCount()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	pendingContactEdits, err := h.ContactEditService.PendingCount()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{
		"pending_reviews":       pendingReviews,
		"pending_contact_edits": pendingContactEdits,
	})
}
