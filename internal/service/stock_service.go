package service

import (
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/repository"

	"gorm.io/gorm"
)

// StockService 库存台账服务。
// 所有变更委托给条件 UPDATE 原语，影响行数为 0 时翻译为业务错误。
type StockService struct {
	variantRepo repository.VariantRepository
}

// NewStockService 创建库存服务
func NewStockService(variantRepo repository.VariantRepository) *StockService {
	return &StockService{variantRepo: variantRepo}
}

// WithTx 绑定事务
func (s *StockService) WithTx(tx *gorm.DB) *StockService {
	if tx == nil {
		return s
	}
	return &StockService{variantRepo: s.variantRepo.WithTx(tx)}
}

// Reserve 预占库存
func (s *StockService) Reserve(variantID uint, quantity int) error {
	rows, err := s.variantRepo.ReserveStock(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		variant, err := s.variantRepo.GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// Release 释放预占。预占不足时清零残留并返回 ErrOverRelease，
// 调用方可按非致命处理。
func (s *StockService) Release(variantID uint, quantity int) error {
	rows, err := s.variantRepo.ReleaseStock(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		variant, err := s.variantRepo.GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		floored, err := s.variantRepo.FloorReserved(variantID)
		if err != nil {
			return err
		}
		logger.Warnw("stock_release_over",
			"variant_id", variantID,
			"quantity", quantity,
			"floored", floored > 0,
		)
		return ErrOverRelease
	}
	return nil
}

// Return 物理入库，在库数量增加
func (s *StockService) Return(variantID uint, quantity int) error {
	rows, err := s.variantRepo.ReturnStock(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// DeductOnHand 扣减在库数量
func (s *StockService) DeductOnHand(variantID uint, quantity int) error {
	rows, err := s.variantRepo.DeductOnHand(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		variant, err := s.variantRepo.GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}
