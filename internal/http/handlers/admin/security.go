package admin

import (
	"strconv"
	"strings"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetSecurityAuditEvents 查询安全审计流水
func (h *Handler) GetSecurityAuditEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	events, total, err := h.AuditService.List(repository.AuditEventListFilter{
		Page:        page,
		PageSize:    pageSize,
		EventType:   strings.TrimSpace(c.Query("event_type")),
		Outcome:     strings.TrimSpace(c.Query("outcome")),
		EmailNorm:   strings.ToLower(strings.TrimSpace(c.Query("email"))),
		IPKey:       strings.TrimSpace(c.Query("ip")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, events, response.NewPagination(page, pageSize, total))
}

// GetSecurityTelemetry 获取安全遥测快照
func (h *Handler) GetSecurityTelemetry(c *gin.Context) {
	snapshot, err := h.TelemetryService.Snapshot()
	if err != nil {
		respondError(c, response.CodeServiceUnavailable, "error.telemetry_unavailable", err)
		return
	}

	response.Success(c, snapshot)
}
