package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tijara-next/internal/http/response"
	"github.com/tijara-next/internal/queue"
	"github.com/tijara-next/internal/repository"
	"github.com/tijara-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from 时间格式不正确", nil)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to 时间格式不正确", nil)
		return
	}

	employeeID := uint(0)
	if raw := strings.TrimSpace(c.Query("employee_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "employee_id 不正确", nil)
			return
		}
		employeeID = uint(parsed)
	}

	filter := repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		Partner:     strings.TrimSpace(c.Query("partner")),
		EmployeeID:  employeeID,
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		Tracking:    strings.TrimSpace(c.Query("tracking")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}

	items, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询订单列表失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询订单失败", err)
		return
	}
	response.Success(c, order)
}

// AdminCreateOrder 建单并预占库存
func (h *Handler) AdminCreateOrder(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}

	order, err := h.OrderService.CreateOrder(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderItemInvalid):
			respondError(c, response.CodeBadRequest, "订单项不正确", nil)
		case errors.Is(err, service.ErrVariantNotFound):
			respondError(c, response.CodeBadRequest, "商品规格不存在", nil)
		case errors.Is(err, service.ErrInsufficientStock):
			respondError(c, response.CodeConflict, "库存不足", nil)
		default:
			respondError(c, response.CodeInternal, "建单失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_order_created", "order_id", order.ID, "order_no", order.OrderNo)
	response.Success(c, order)
}

type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	DeliveryStatus string `json:"delivery_status"`
}

// AdminUpdateOrderStatus 更新订单状态并同步库存预占
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}
	if strings.TrimSpace(req.Status) == "" && strings.TrimSpace(req.DeliveryStatus) == "" {
		respondError(c, response.CodeBadRequest, "status 与 delivery_status 至少提供一个", nil)
		return
	}

	result, err := h.OrderService.UpdateStatus(id, strings.TrimSpace(req.Status), strings.TrimSpace(req.DeliveryStatus))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "更新订单状态失败", err)
		return
	}
	response.Success(c, result)
}

// AdminCompleteOrder 完结订单并扣减在库量
func (h *Handler) AdminCompleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.OrderService.CompleteOrder(id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "完结订单失败", err)
		return
	}
	requestLog(c).Infow("admin_order_completed", "order_id", id)
	response.SuccessWithMsg(c, "订单已完结", nil)
}

// AdminDeleteOrder 删除订单。
// 配送方订单需先通过远端双重校验，确认远端已不存在。
func (h *Handler) AdminDeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.OrderService.DeleteOrder(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderStillRemote):
			respondError(c, response.CodeConflict, "配送方仍存在该订单，禁止删除", nil)
		case errors.Is(err, service.ErrVerificationAmbiguous):
			respondError(c, response.CodeUpstreamFailed, "远端校验未通过，请稍后重试", err)
		default:
			respondError(c, response.CodeInternal, "删除订单失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_order_deleted", "order_id", id)
	response.SuccessWithMsg(c, "订单已删除", nil)
}

type syncReservationRequest struct {
	Async bool `json:"async"`
}

// AdminSyncOrderReservation 手动触发订单预留同步。
// async 为 true 时仅入队，由 worker 异步执行。
func (h *Handler) AdminSyncOrderReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req syncReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "请求参数不正确", err)
			return
		}
	}

	if req.Async {
		if h.QueueClient == nil || !h.QueueClient.Enabled() {
			respondError(c, response.CodeBadRequest, "队列未启用，无法异步同步", nil)
			return
		}
		if err := h.QueueClient.EnqueueReservationSync(queue.ReservationSyncPayload{OrderID: id}); err != nil {
			respondError(c, response.CodeInternal, "同步任务入队失败", err)
			return
		}
		requestLog(c).Infow("admin_reservation_sync_enqueued", "order_id", id)
		response.SuccessWithMsg(c, "同步任务已入队", gin.H{"order_id": id})
		return
	}

	result, err := h.ReservationService.SyncOrderReservation(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "预留同步失败", err)
		return
	}
	response.Success(c, result)
}

type deliverItemsRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}

// AdminDeliverItems 部分履约：释放已送达订单项，其余转入待退货
func (h *Handler) AdminDeliverItems(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req deliverItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}

	deliveredCount, err := h.ReservationService.ReleaseDeliveredItems(id, req.ItemIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderItemInvalid):
			respondError(c, response.CodeBadRequest, "订单项不属于该订单", nil)
		default:
			respondError(c, response.CodeInternal, "部分履约处理失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_order_items_delivered", "order_id", id, "item_count", deliveredCount)
	response.Success(c, gin.H{"delivered_count": deliveredCount})
}

// AdminReturnItems 部分履约：待退货订单项回库
func (h *Handler) AdminReturnItems(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	returnedCount, err := h.ReservationService.ReturnUndeliveredItems(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "退货回库处理失败", err)
		return
	}
	requestLog(c).Infow("admin_order_items_returned", "order_id", id, "item_count", returnedCount)
	response.Success(c, gin.H{"returned_count": returnedCount})
}
