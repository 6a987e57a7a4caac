package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
)

func TestDecrementHappyPath(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	ledger := NewStockLedger(db)
	ctx := context.Background()

	var remaining float64
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		remaining, err = ledger.Decrement(ctx, tx, flour, 250)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 750 {
		t.Errorf("remaining = %v, want 750", remaining)
	}
	if s := stockOf(t, db, flour); s != 750 {
		t.Errorf("stock = %v, want 750", s)
	}
}

func TestDecrementUpdatesLastUpdated(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	db.Model(&domain.InventoryItem{}).Where("id = ?", flour).
		Update("last_updated", time.Now().Add(-24*time.Hour))

	ledger := NewStockLedger(db)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Decrement(context.Background(), tx, flour, 1)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	var item domain.InventoryItem
	db.First(&item, flour)
	if time.Since(item.LastUpdated) > time.Minute {
		t.Errorf("last_updated not refreshed: %v", item.LastUpdated)
	}
}

func TestDecrementRefusesNegativeStock(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 100, "grams")
	ledger := NewStockLedger(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Decrement(context.Background(), tx, flour, 101)
		return err
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}

	var insuff *InsufficientStockError
	if !errors.As(err, &insuff) || len(insuff.Shortfalls) != 1 {
		t.Fatalf("expected one shortfall, got %v", err)
	}
	if insuff.Shortfalls[0].Available != 100 || insuff.Shortfalls[0].Required != 101 {
		t.Errorf("shortfall = %+v", insuff.Shortfalls[0])
	}

	if s := stockOf(t, db, flour); s != 100 {
		t.Errorf("failed decrement changed stock: %v", s)
	}
}

func TestDecrementUnknownItem(t *testing.T) {
	db := newTestDB(t)
	ledger := NewStockLedger(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Decrement(context.Background(), tx, 12345, 1)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 100, "grams")
	ledger := NewStockLedger(db)
	ctx := context.Background()

	// 20 workers each try to take 10; only 10 can succeed.
	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := ledger.Decrement(ctx, tx, flour, 10)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Errorf("%d decrements succeeded, want 10", succeeded)
	}
	if s := stockOf(t, db, flour); s != 0 {
		t.Errorf("stock = %v, want 0", s)
	}
}

func TestSetRejectsUnitMismatch(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	ledger := NewStockLedger(db)

	_, err := ledger.Set(context.Background(), flour, 2, "kilograms")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
	if s := stockOf(t, db, flour); s != 1000 {
		t.Errorf("rejected set changed stock: %v", s)
	}
}

func TestSetWritesQuantity(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	ledger := NewStockLedger(db)

	item, err := ledger.Set(context.Background(), flour, 400, "grams")
	if err != nil {
		t.Fatal(err)
	}
	if item.StockQuantity != 400 {
		t.Errorf("returned quantity = %v, want 400", item.StockQuantity)
	}
	if s := stockOf(t, db, flour); s != 400 {
		t.Errorf("stock = %v, want 400", s)
	}
}
