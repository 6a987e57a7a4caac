package inventory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brewpos/brewpos/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("sqlite not available: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedItem(t *testing.T, db *gorm.DB, name string, qty float64, unit string) int64 {
	t.Helper()
	item := domain.InventoryItem{
		ItemName:      name,
		StockQuantity: qty,
		UnitOfMeasure: unit,
		LastUpdated:   time.Now(),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed inventory %s: %v", name, err)
	}
	return item.ID
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) int64 {
	t.Helper()
	p := domain.Product{Name: name, Price: price, Category: "Pizza", Size: "Standard"}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p.ID
}

func seedRecipeLine(t *testing.T, db *gorm.DB, productID, inventoryID int64, needed float64, unit string) {
	t.Helper()
	line := domain.ProductIngredient{
		ProductID:      productID,
		InventoryID:    inventoryID,
		QuantityNeeded: needed,
		UnitOfMeasure:  unit,
	}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("seed recipe line: %v", err)
	}
}

func stockOf(t *testing.T, db *gorm.DB, inventoryID int64) float64 {
	t.Helper()
	var item domain.InventoryItem
	if err := db.First(&item, inventoryID).Error; err != nil {
		t.Fatalf("read inventory %d: %v", inventoryID, err)
	}
	return item.StockQuantity
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
