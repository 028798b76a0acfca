package admin

import (
	"strconv"
	"strings"

	"github.com/tijara-next/internal/http/response"
	"github.com/tijara-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListNotifications 通知列表
func (h *Handler) AdminListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		Type:       strings.TrimSpace(c.Query("type")),
		UnreadOnly: c.Query("unread_only") == "true",
	}
	items, total, err := h.NotificationService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询通知列表失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminMarkNotificationRead 标记通知已读
func (h *Handler) AdminMarkNotificationRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(id); err != nil {
		respondError(c, response.CodeInternal, "标记通知已读失败", err)
		return
	}
	response.SuccessWithMsg(c, "通知已标记为已读", nil)
}
