package admin

import (
	"strconv"
	"strings"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/http/response"
	"github.com/tijara-next/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminListAccounts 配送方账号列表
func (h *Handler) AdminListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	items, total, err := h.DeliveryAccountRepo.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "查询配送账号失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

type createAccountRequest struct {
	Partner    string `json:"partner"`
	Label      string `json:"label" binding:"required"`
	Token      string `json:"token" binding:"required"`
	MerchantID string `json:"merchant_id"`
}

// AdminCreateAccount 新增配送方账号
func (h *Handler) AdminCreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}
	partner := strings.TrimSpace(req.Partner)
	if partner == "" {
		partner = constants.DeliveryPartnerAlWaseet
	}

	account := &models.DeliveryAccount{
		Partner:    partner,
		Label:      strings.TrimSpace(req.Label),
		Token:      strings.TrimSpace(req.Token),
		MerchantID: strings.TrimSpace(req.MerchantID),
		IsActive:   true,
	}
	if err := h.DeliveryAccountRepo.Create(account); err != nil {
		respondError(c, response.CodeInternal, "创建配送账号失败", err)
		return
	}
	requestLog(c).Infow("admin_delivery_account_created", "account_id", account.ID, "partner", partner, "label", account.Label)
	response.Success(c, account)
}

type updateAccountRequest struct {
	Token      *string `json:"token"`
	MerchantID *string `json:"merchant_id"`
	IsActive   *bool   `json:"is_active"`
}

// AdminUpdateAccount 更新配送方账号（凭据轮换或停用）
func (h *Handler) AdminUpdateAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}

	account, err := h.DeliveryAccountRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "查询配送账号失败", err)
		return
	}
	if account == nil {
		respondError(c, response.CodeNotFound, "配送账号不存在", nil)
		return
	}

	if req.Token != nil && strings.TrimSpace(*req.Token) != "" {
		account.Token = strings.TrimSpace(*req.Token)
	}
	if req.MerchantID != nil {
		account.MerchantID = strings.TrimSpace(*req.MerchantID)
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if err := h.DeliveryAccountRepo.Update(account); err != nil {
		respondError(c, response.CodeInternal, "更新配送账号失败", err)
		return
	}
	requestLog(c).Infow("admin_delivery_account_updated", "account_id", account.ID, "is_active", account.IsActive)
	response.Success(c, account)
}
