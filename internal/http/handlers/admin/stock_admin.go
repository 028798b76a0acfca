package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tijara-next/internal/http/response"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminListProducts 商品列表
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	keyword := strings.TrimSpace(c.Query("keyword"))

	items, total, err := h.ProductRepo.List(page, pageSize, keyword)
	if err != nil {
		respondError(c, response.CodeInternal, "查询商品列表失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetProduct 商品详情（含规格与库存）
func (h *Handler) AdminGetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "查询商品失败", err)
		return
	}
	if product == nil {
		respondError(c, response.CodeNotFound, "商品不存在", nil)
		return
	}
	variants, err := h.VariantRepo.ListByProduct(id, false)
	if err != nil {
		respondError(c, response.CodeInternal, "查询商品规格失败", err)
		return
	}
	product.Variants = variants
	response.Success(c, product)
}

type createVariantRequest struct {
	SKUCode     string      `json:"sku_code" binding:"required"`
	SpecValues  models.JSON `json:"spec_values"`
	PriceAmount string      `json:"price_amount" binding:"required"`
	CostPrice   string      `json:"cost_price" binding:"required"`
	Quantity    int         `json:"quantity"`
	SortOrder   int         `json:"sort_order"`
}

type createProductRequest struct {
	Name      string                 `json:"name" binding:"required"`
	Barcode   string                 `json:"barcode"`
	Tags      models.StringArray     `json:"tags"`
	SortOrder int                    `json:"sort_order"`
	Variants  []createVariantRequest `json:"variants" binding:"required,min=1"`
}

// AdminCreateProduct 创建商品及规格
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}

	variants := make([]models.ProductVariant, 0, len(req.Variants))
	for _, item := range req.Variants {
		price, err := decimal.NewFromString(item.PriceAmount)
		if err != nil {
			respondError(c, response.CodeBadRequest, "售价格式不正确", nil)
			return
		}
		cost, err := decimal.NewFromString(item.CostPrice)
		if err != nil {
			respondError(c, response.CodeBadRequest, "成本价格式不正确", nil)
			return
		}
		if item.Quantity < 0 {
			respondError(c, response.CodeBadRequest, "初始库存不能为负数", nil)
			return
		}
		variants = append(variants, models.ProductVariant{
			SKUCode:        strings.TrimSpace(item.SKUCode),
			SpecValuesJSON: item.SpecValues,
			PriceAmount:    models.NewMoneyFromDecimal(price),
			CostPrice:      models.NewMoneyFromDecimal(cost),
			Quantity:       item.Quantity,
			IsActive:       true,
			SortOrder:      item.SortOrder,
		})
	}

	product := &models.Product{
		Name:      strings.TrimSpace(req.Name),
		Barcode:   strings.TrimSpace(req.Barcode),
		Tags:      req.Tags,
		IsActive:  true,
		SortOrder: req.SortOrder,
	}
	if err := h.ProductRepo.Create(product); err != nil {
		respondError(c, response.CodeInternal, "创建商品失败", err)
		return
	}
	for i := range variants {
		variants[i].ProductID = product.ID
	}
	if err := h.VariantRepo.CreateBatch(variants); err != nil {
		respondError(c, response.CodeInternal, "创建商品规格失败", err)
		return
	}
	product.Variants = variants

	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "variant_count", len(variants))
	response.Success(c, product)
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// AdminRestockVariant 规格补货（增加在库数量）
func (h *Handler) AdminRestockVariant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不正确", err)
		return
	}
	if err := h.StockService.Return(id, req.Quantity); err != nil {
		if errors.Is(err, service.ErrVariantNotFound) {
			respondError(c, response.CodeNotFound, "商品规格不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "补货失败", err)
		return
	}
	variant, err := h.VariantRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "查询规格失败", err)
		return
	}
	requestLog(c).Infow("admin_variant_restocked", "variant_id", id, "quantity", req.Quantity)
	response.Success(c, variant)
}

// AdminGetVariant 规格详情（含可售量）
func (h *Handler) AdminGetVariant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	variant, err := h.VariantRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "查询规格失败", err)
		return
	}
	if variant == nil {
		respondError(c, response.CodeNotFound, "商品规格不存在", nil)
		return
	}
	response.Success(c, gin.H{
		"variant":   variant,
		"available": variant.Available(),
	})
}
