package admin

import (
	"errors"
	"strconv"

	"github.com/tijara-next/internal/http/response"
	"github.com/tijara-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminClosePeriod 关账并生成周期快照
func (h *Handler) AdminClosePeriod(c *gin.Context) {
	var input service.ClosePeriodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}

	period, err := h.PeriodService.ClosePeriod(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPeriodNameInvalid):
			respondError(c, response.CodeBadRequest, "周期名称不能为空", nil)
		case errors.Is(err, service.ErrPeriodNameTaken):
			respondError(c, response.CodeConflict, "周期名称已存在", nil)
		case errors.Is(err, service.ErrPeriodRangeInvalid):
			respondError(c, response.CodeBadRequest, "周期时间区间不正确", nil)
		default:
			respondError(c, response.CodeInternal, "关账失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_period_closed", "period_id", period.ID, "name", period.Name)
	response.Success(c, period)
}

// AdminListPeriods 结算周期列表
func (h *Handler) AdminListPeriods(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	items, total, err := h.PeriodService.ListPeriods(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "查询结算周期失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetPeriod 结算周期详情
func (h *Handler) AdminGetPeriod(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	period, err := h.PeriodService.GetPeriod(id)
	if err != nil {
		respondError(c, response.CodeInternal, "查询结算周期失败", err)
		return
	}
	if period == nil {
		respondError(c, response.CodeNotFound, "结算周期不存在", nil)
		return
	}
	response.Success(c, period)
}
