package reporting

import (
	"context"
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
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, when time.Time, total float64, items map[string]int) int64 {
	t.Helper()

	opr := domain.SysOpr{Username: fmt.Sprintf("barista-%d", time.Now().UnixNano()), Role: domain.RoleAdmin}
	if err := db.Create(&opr).Error; err != nil {
		t.Fatal(err)
	}
	cust := domain.Customer{Name: "Walk-in", TotalAmount: total}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatal(err)
	}
	order := domain.Order{CustomerID: cust.ID, OrderDate: when, TotalAmount: total, UserID: opr.ID, PaymentStatus: "paid"}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}

	for name, qty := range items {
		p := domain.Product{Name: name, Price: total / float64(qty), Category: "Drinks", Size: "Standard"}
		if err := db.Create(&p).Error; err != nil {
			t.Fatal(err)
		}
		oi := domain.OrderItem{OrderID: order.ID, ProductID: p.ID, Quantity: qty, Price: p.Price}
		if err := db.Create(&oi).Error; err != nil {
			t.Fatal(err)
		}
	}
	sale := domain.Sale{OrderID: order.ID, TotalSales: total, SalesDate: when, UserID: opr.ID}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatal(err)
	}
	return order.ID
}

func TestSalesDataGroupsByOrder(t *testing.T) {
	db := newTestDB(t)
	when := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	seedOrder(t, db, when, 20, map[string]int{"Latte": 2, "Mocha": 2})

	svc := NewService(db)
	report, err := svc.SalesData(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("entries = %d, want 1 grouped order", len(report.Entries))
	}
	entry := report.Entries[0]
	if !strings.Contains(entry.ProductName, "Latte") || !strings.Contains(entry.ProductName, "Mocha") {
		t.Errorf("products not collapsed: %q", entry.ProductName)
	}
	if report.Summary.Orders != 1 || report.Summary.Revenue != 20 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if len(report.MonthlyChart["2026-03"]) == 0 {
		t.Error("monthly chart missing 2026-03")
	}
	if len(report.DailyChart["2026-03-15"]) == 0 {
		t.Error("daily chart missing 2026-03-15")
	}
}

func TestSalesDataRangeFilter(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), 10, map[string]int{"Latte": 1})
	seedOrder(t, db, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), 15, map[string]int{"Mocha": 1})

	svc := NewService(db)
	start, end, err := ParseRange("2026-02-01", "2026-03-01")
	if err != nil {
		t.Fatal(err)
	}
	report, err := svc.SalesData(context.Background(), start, end)
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.Orders != 1 || report.Summary.Revenue != 15 {
		t.Errorf("summary = %+v, want only the February order", report.Summary)
	}
}

func TestParseRangeRejectsGarbage(t *testing.T) {
	if _, _, err := ParseRange("not a date", ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestArchiveMovesOrder(t *testing.T) {
	db := newTestDB(t)
	id := seedOrder(t, db, time.Now(), 12, map[string]int{"Latte": 1})

	svc := NewService(db)
	n, err := svc.Archive(context.Background(), []int64{id, 99999}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("archived = %d, want 1 (missing ids skipped)", n)
	}

	var liveOrders, liveItems, liveSales, archived int64
	db.Model(&domain.Order{}).Count(&liveOrders)
	db.Model(&domain.OrderItem{}).Count(&liveItems)
	db.Model(&domain.Sale{}).Count(&liveSales)
	db.Model(&domain.ArchivedSale{}).Count(&archived)

	if liveOrders != 0 || liveItems != 0 || liveSales != 0 {
		t.Errorf("live rows remain: orders=%d items=%d sales=%d", liveOrders, liveItems, liveSales)
	}
	if archived != 1 {
		t.Errorf("archived rows = %d, want 1", archived)
	}
}

func TestLowStock(t *testing.T) {
	db := newTestDB(t)
	db.Create(&domain.InventoryItem{ItemName: "Flour", StockQuantity: 5, UnitOfMeasure: "grams", LastUpdated: time.Now()})
	db.Create(&domain.InventoryItem{ItemName: "Milk", StockQuantity: 500, UnitOfMeasure: "milliliters", LastUpdated: time.Now()})

	svc := NewService(db)
	items, err := svc.LowStock(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ItemName != "Flour" {
		t.Errorf("low stock = %+v, want only Flour", items)
	}
}

func TestExportCSV(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, time.Now(), 10, map[string]int{"Latte": 1})

	svc := NewService(db)
	out, err := svc.ExportCSV(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if !strings.Contains(text, "order_id") || !strings.Contains(text, "Latte") {
		t.Errorf("csv missing expected content:\n%s", text)
	}
}
