package inventory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brewpos/brewpos/internal/domain"
)

// StockLedger owns the authoritative stock_quantity per inventory item. All
// mutations go through it; every write bumps last_updated. Decrements run
// against an explicit transaction handle so the check and the write share one
// boundary.
type StockLedger struct {
	db *gorm.DB
}

func NewStockLedger(db *gorm.DB) *StockLedger {
	return &StockLedger{db: db}
}

// Get returns one inventory item.
func (l *StockLedger) Get(ctx context.Context, inventoryID int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := l.db.WithContext(ctx).First(&item, inventoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query inventory item")
	}
	return &item, nil
}

// lockItem reads an inventory row under FOR UPDATE within tx. SQLite has no
// row locks and serializes writers itself, so the clause is skipped there.
func lockItem(tx *gorm.DB, inventoryID int64) (*domain.InventoryItem, error) {
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item domain.InventoryItem
	err := tx.First(&item, inventoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock inventory row")
	}
	return &item, nil
}

// Decrement subtracts amount (in the item's stored unit) from stock within
// tx. The current quantity is read under a row lock in the same transaction,
// so concurrent decrements serialize; a result below zero fails with
// InsufficientStockError and nothing is written.
func (l *StockLedger) Decrement(ctx context.Context, tx *gorm.DB, inventoryID int64, amount float64) (float64, error) {
	if amount < 0 {
		return 0, &ValidationError{Msg: "decrement amount must not be negative"}
	}

	item, err := lockItem(tx.WithContext(ctx), inventoryID)
	if err != nil {
		return 0, err
	}

	if item.StockQuantity-amount < 0 {
		return 0, &InsufficientStockError{Shortfalls: []Shortfall{{
			InventoryID: item.ID,
			ItemName:    item.ItemName,
			Required:    amount,
			Available:   item.StockQuantity,
			Unit:        item.UnitOfMeasure,
		}}}
	}

	// The guard clause repeats the invariant at the store so a missed lock
	// can never push stock negative.
	res := tx.WithContext(ctx).Model(&domain.InventoryItem{}).
		Where("id = ? AND stock_quantity >= ?", inventoryID, amount).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", amount),
			"last_updated":   time.Now(),
		})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return 0, &InsufficientStockError{Shortfalls: []Shortfall{{
			InventoryID: item.ID,
			ItemName:    item.ItemName,
			Required:    amount,
			Available:   item.StockQuantity,
			Unit:        item.UnitOfMeasure,
		}}}
	}

	return item.StockQuantity - amount, nil
}

// Set writes an absolute quantity for manual corrections. The unit must equal
// the stored unit; the ledger never reinterprets units, conversion is the
// caller's job.
func (l *StockLedger) Set(ctx context.Context, inventoryID int64, quantity float64, unit string) (*domain.InventoryItem, error) {
	if quantity < 0 {
		return nil, &ValidationError{Msg: "stock quantity must not be negative"}
	}

	var updated *domain.InventoryItem
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, inventoryID)
		if err != nil {
			return err
		}
		if unit != item.UnitOfMeasure {
			return &ValidationError{Msg: "unit mismatch: convert before writing the ledger"}
		}

		item.StockQuantity = quantity
		item.LastUpdated = time.Now()
		if err := tx.Save(item).Error; err != nil {
			return errors.Wrap(err, "set stock")
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
