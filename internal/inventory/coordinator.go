package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/measure"
)

// Topics published after an order commits.
const (
	EventStockLow      = "stock.low"
	EventStockDepleted = "stock.depleted"
)

// StockEvent is the payload for stock.low and stock.depleted.
type StockEvent struct {
	InventoryID int64
	ItemName    string
	Remaining   float64
	Unit        string
}

// OrderLine is one requested product with its sell price at order time.
type OrderLine struct {
	ProductID int64   `json:"product_id,string"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// PlaceOrderRequest carries everything needed to commit an order.
type PlaceOrderRequest struct {
	CustomerID    int64       `json:"customer_id,string"`
	UserID        int64       `json:"user_id,string"`
	PaymentStatus string      `json:"payment_status"`
	Lines         []OrderLine `json:"order_items"`
}

// Coordinator turns a multi-line order into one atomic unit: validate every
// line against current stock, decrement the ledger for every implied
// ingredient, and persist the order rows and the sale record. Any failure
// rolls the whole unit back.
type Coordinator struct {
	db     *gorm.DB
	ledger *StockLedger
	bus    EventBus.Bus

	// LowStockThreshold triggers stock.low events, in each item's stored unit.
	LowStockThreshold float64
}

func NewCoordinator(db *gorm.DB, ledger *StockLedger, bus EventBus.Bus) *Coordinator {
	return &Coordinator{
		db:                db,
		ledger:            ledger,
		bus:               bus,
		LowStockThreshold: 10,
	}
}

// consumption is the summed requirement for one inventory item across all
// order lines, in the item's stored unit.
type consumption struct {
	inventoryID int64
	itemName    string
	unit        string
	amount      float64
}

func validatePlaceOrder(req *PlaceOrderRequest) error {
	if len(req.Lines) == 0 {
		return &ValidationError{Msg: "order has no items"}
	}
	if req.UserID == 0 {
		return &ValidationError{Msg: "user_id is required"}
	}
	for _, line := range req.Lines {
		if line.ProductID == 0 {
			return &ValidationError{Msg: "order item is missing product_id"}
		}
		if line.Quantity < 1 {
			return &ValidationError{Msg: "order item quantity must be at least 1"}
		}
		if line.Price < 0 {
			return &ValidationError{Msg: "order item price must not be negative"}
		}
	}
	return nil
}

// PlaceOrder commits the order and returns its identifier. On any shortfall
// the whole order aborts with InsufficientStockError listing every binding
// ingredient; unexpected storage failures roll back and surface as a
// retryable TransactionError.
func (c *Coordinator) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (int64, error) {
	if err := validatePlaceOrder(req); err != nil {
		return 0, err
	}

	var orderID int64
	var events []StockEvent

	txErr := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read every recipe inside this transaction; cached availability
		// from an earlier check must not be trusted.
		needs := make(map[int64]*consumption)
		for _, line := range req.Lines {
			recipe, err := ingredientsFor(tx, line.ProductID)
			if err != nil {
				return err
			}
			// No recipe means the product is not inventory-managed; it sells
			// without consuming stock.
			for _, ing := range recipe {
				if ing.QuantityNeeded <= 0 {
					return errors.Wrapf(ErrInvalidRecipe,
						"ingredient %q needs non-positive quantity %v", ing.ItemName, ing.QuantityNeeded)
				}
				perUnit, err := measure.Convert(ing.QuantityNeeded, ing.RecipeUnit, ing.StockUnit)
				if err != nil {
					return err
				}
				// An ingredient shared by several lines accumulates into a
				// single decrement, so it cannot trip a spurious
				// mid-transaction shortfall.
				n, ok := needs[ing.InventoryID]
				if !ok {
					n = &consumption{inventoryID: ing.InventoryID, itemName: ing.ItemName, unit: ing.StockUnit}
					needs[ing.InventoryID] = n
				}
				n.amount = measure.Round(n.amount + perUnit*float64(line.Quantity))
			}
		}

		// Lock inventory rows in ascending id order to keep concurrent
		// multi-ingredient orders deadlock free.
		ids := make([]int64, 0, len(needs))
		for id := range needs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		var shortfalls []Shortfall
		for _, id := range ids {
			item, err := lockItem(tx, id)
			if err != nil {
				return err
			}
			if item.StockQuantity < needs[id].amount {
				shortfalls = append(shortfalls, Shortfall{
					InventoryID: id,
					ItemName:    item.ItemName,
					Required:    needs[id].amount,
					Available:   item.StockQuantity,
					Unit:        item.UnitOfMeasure,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		now := time.Now()
		var total float64
		for _, line := range req.Lines {
			total += line.Price * float64(line.Quantity)
		}

		order := domain.Order{
			CustomerID:    req.CustomerID,
			OrderDate:     now,
			TotalAmount:   total,
			UserID:        req.UserID,
			PaymentStatus: req.PaymentStatus,
		}
		if err := tx.Create(&order).Error; err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, line := range req.Lines {
			item := domain.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return errors.Wrap(err, "create order item")
			}
		}

		for _, id := range ids {
			remaining, err := c.ledger.Decrement(ctx, tx, id, needs[id].amount)
			if err != nil {
				return err
			}
			if remaining <= 0 || remaining < c.LowStockThreshold {
				events = append(events, StockEvent{id, needs[id].itemName, remaining, needs[id].unit})
			}
		}

		sale := domain.Sale{
			OrderID:    order.ID,
			TotalSales: total,
			SalesDate:  now,
			UserID:     req.UserID,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return errors.Wrap(err, "create sale record")
		}

		orderID = order.ID
		return nil
	})

	if txErr != nil {
		// Business and validation failures pass through unchanged; anything
		// else is a storage fault the caller may retry.
		switch {
		case errors.Is(txErr, ErrInsufficientStock),
			errors.Is(txErr, ErrValidation),
			errors.Is(txErr, ErrInvalidRecipe),
			errors.Is(txErr, ErrNotFound),
			errors.Is(txErr, measure.ErrUnknownUnit),
			errors.Is(txErr, measure.ErrIncompatibleUnits):
			return 0, txErr
		default:
			return 0, &TransactionError{Op: "place order", Err: txErr}
		}
	}

	c.publishStockEvents(events)

	zap.L().Info("order committed",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", req.UserID),
		zap.Int("lines", len(req.Lines)))
	return orderID, nil
}

func (c *Coordinator) publishStockEvents(events []StockEvent) {
	if c.bus == nil {
		return
	}
	for _, ev := range events {
		if ev.Remaining <= 0 {
			c.bus.Publish(EventStockDepleted, ev)
		} else {
			c.bus.Publish(EventStockLow, ev)
		}
	}
}

// AdjustStock applies a manual stock correction. A quantity given in a
// different compatible unit is converted to the item's stored unit before the
// ledger write; the stored unit itself never changes here.
func (c *Coordinator) AdjustStock(ctx context.Context, inventoryID int64, quantity float64, unit string) (*domain.InventoryItem, error) {
	item, err := c.ledger.Get(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	converted := quantity
	if unit != item.UnitOfMeasure {
		converted, err = measure.Convert(quantity, unit, item.UnitOfMeasure)
		if err != nil {
			return nil, err
		}
	}

	return c.ledger.Set(ctx, inventoryID, converted, item.UnitOfMeasure)
}
