package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/delivery"
	"github.com/tijara-next/internal/http/response"
	"github.com/tijara-next/internal/queue"
	"github.com/tijara-next/internal/service"

	"github.com/gin-gonic/gin"
)

type triggerSweepRequest struct {
	Partner string `json:"partner"`
	Async   bool   `json:"async"`
}

// AdminTriggerSweep 手动触发一次对账。
// async 为 true 时仅入队，由 worker 异步执行。
func (h *Handler) AdminTriggerSweep(c *gin.Context) {
	var req triggerSweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "请求参数不正确", err)
			return
		}
	}
	partner := strings.TrimSpace(req.Partner)
	if partner == "" {
		partner = constants.DeliveryPartnerAlWaseet
	}

	if req.Async {
		if h.QueueClient == nil || !h.QueueClient.Enabled() {
			respondError(c, response.CodeBadRequest, "队列未启用，无法异步对账", nil)
			return
		}
		if err := h.QueueClient.EnqueueDeliverySweep(queue.DeliverySweepPayload{Partner: partner, Trigger: "manual"}); err != nil {
			respondError(c, response.CodeInternal, "对账任务入队失败", err)
			return
		}
		requestLog(c).Infow("admin_sweep_enqueued", "partner", partner)
		response.SuccessWithMsg(c, "对账任务已入队", gin.H{"partner": partner})
		return
	}

	report, err := h.ReconciliationService.Sweep(c.Request.Context(), partner, "manual")
	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrPartnerNotConfigured):
			respondError(c, response.CodeBadRequest, "配送方未接入", nil)
		case errors.Is(err, service.ErrNoUsableCredentials):
			respondError(c, response.CodeUpstreamFailed, "没有可用的配送方账号", nil)
		default:
			respondError(c, response.CodeInternal, "对账执行失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_sweep_finished",
		"partner", partner,
		"orders_checked", report.OrdersChecked,
		"orders_updated", report.OrdersUpdated,
	)
	response.Success(c, report)
}

// AdminListSweeps 对账日志列表
func (h *Handler) AdminListSweeps(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	partner := strings.TrimSpace(c.Query("partner"))

	items, total, err := h.SweepLogRepo.List(page, pageSize, partner)
	if err != nil {
		respondError(c, response.CodeInternal, "查询对账日志失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetSweep 对账日志详情
func (h *Handler) AdminGetSweep(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.SweepLogRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "查询对账日志失败", err)
		return
	}
	if item == nil {
		respondError(c, response.CodeNotFound, "对账日志不存在", nil)
		return
	}
	response.Success(c, item)
}
