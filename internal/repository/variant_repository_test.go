package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tijara-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupVariantRepositoryTest(t *testing.T) (*GormVariantRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:variant_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductVariant{}); err != nil {
		t.Fatalf("migrate variant failed: %v", err)
	}
	return NewVariantRepository(db), db
}

func createLedgerVariant(t *testing.T, db *gorm.DB, quantity, reserved int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:   1,
		SKUCode:     fmt.Sprintf("SKU-%d", time.Now().UnixNano()),
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(25000)),
		CostPrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
		Quantity:    quantity,
		Reserved:    reserved,
		IsActive:    true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func reloadLedgerVariant(t *testing.T, db *gorm.DB, id uint) *models.ProductVariant {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, id).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return &variant
}

func TestReserveReleaseReturnLifecycle(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createLedgerVariant(t, db, 10, 0)

	affected, err := repo.ReserveStock(variant.ID, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("reserve affected want 1 got %d", affected)
	}

	affected, err = repo.ReleaseStock(variant.ID, 3)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("release affected want 1 got %d", affected)
	}

	affected, err = repo.ReturnStock(variant.ID, 2)
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("return affected want 1 got %d", affected)
	}

	got := reloadLedgerVariant(t, db, variant.ID)
	if got.Quantity != 12 || got.Reserved != 0 {
		t.Fatalf("ledger state want quantity=12 reserved=0 got quantity=%d reserved=%d", got.Quantity, got.Reserved)
	}
}

func TestReserveStockRejectsOversell(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createLedgerVariant(t, db, 5, 4)

	affected, err := repo.ReserveStock(variant.ID, 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("oversell reserve affected want 0 got %d", affected)
	}

	got := reloadLedgerVariant(t, db, variant.ID)
	if got.Reserved != 4 {
		t.Fatalf("reserved want 4 got %d", got.Reserved)
	}
}

func TestReleaseStockRejectsUnderflow(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createLedgerVariant(t, db, 5, 1)

	affected, err := repo.ReleaseStock(variant.ID, 3)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("underflow release affected want 0 got %d", affected)
	}

	affected, err = repo.FloorReserved(variant.ID)
	if err != nil {
		t.Fatalf("floor failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("floor affected want 1 got %d", affected)
	}

	got := reloadLedgerVariant(t, db, variant.ID)
	if got.Reserved != 0 {
		t.Fatalf("reserved want 0 got %d", got.Reserved)
	}
}

func TestDeductOnHandRejectsShortfall(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createLedgerVariant(t, db, 2, 0)

	affected, err := repo.DeductOnHand(variant.ID, 3)
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("shortfall deduct affected want 0 got %d", affected)
	}

	affected, err = repo.DeductOnHand(variant.ID, 2)
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("deduct affected want 1 got %d", affected)
	}

	got := reloadLedgerVariant(t, db, variant.ID)
	if got.Quantity != 0 {
		t.Fatalf("quantity want 0 got %d", got.Quantity)
	}
}
