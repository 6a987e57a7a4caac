package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/asaskevich/EventBus"

	"github.com/brewpos/brewpos/internal/domain"
)

func TestPlaceOrderSuccess(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	orderID, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines:         []OrderLine{{ProductID: pizza, Quantity: 3, Price: 9.5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if orderID == 0 {
		t.Fatal("expected a new order id")
	}

	if s := stockOf(t, db, flour); s != 250 {
		t.Errorf("flour stock = %v, want 250", s)
	}

	var order domain.Order
	if err := db.First(&order, orderID).Error; err != nil {
		t.Fatalf("order row missing: %v", err)
	}
	if order.TotalAmount != 28.5 {
		t.Errorf("total = %v, want 28.5", order.TotalAmount)
	}
	if n := countRows(t, db, &domain.OrderItem{}); n != 1 {
		t.Errorf("order items = %d, want 1", n)
	}
	if n := countRows(t, db, &domain.Sale{}); n != 1 {
		t.Errorf("sale rows = %d, want 1", n)
	}
}

func TestPlaceOrderInsufficientLeavesNothingBehind(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	_, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines:         []OrderLine{{ProductID: pizza, Quantity: 5, Price: 9.5}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}

	var insuff *InsufficientStockError
	if !errors.As(err, &insuff) {
		t.Fatalf("expected InsufficientStockError, got %T", err)
	}
	if len(insuff.Shortfalls) != 1 || insuff.Shortfalls[0].ItemName != "Flour" {
		t.Errorf("shortfalls = %+v", insuff.Shortfalls)
	}

	if s := stockOf(t, db, flour); s != 1000 {
		t.Errorf("aborted order changed stock: %v", s)
	}
	if n := countRows(t, db, &domain.Order{}); n != 0 {
		t.Errorf("order rows = %d, want 0", n)
	}
	if n := countRows(t, db, &domain.OrderItem{}); n != 0 {
		t.Errorf("order item rows = %d, want 0", n)
	}
	if n := countRows(t, db, &domain.Sale{}); n != 0 {
		t.Errorf("sale rows = %d, want 0", n)
	}
}

func TestPlaceOrderMultiLineAbortsWhole(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	cheese := seedItem(t, db, "Cheese", 50, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	cheesy := seedProduct(t, db, "Cheesy Bread", 5.0)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")
	seedRecipeLine(t, db, cheesy, cheese, 100, "grams") // not enough cheese

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	_, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines: []OrderLine{
			{ProductID: pizza, Quantity: 1, Price: 9.5},
			{ProductID: cheesy, Quantity: 1, Price: 5.0},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}

	// The sufficient line must not have consumed anything either.
	if s := stockOf(t, db, flour); s != 1000 {
		t.Errorf("flour stock = %v, want 1000", s)
	}
	if s := stockOf(t, db, cheese); s != 50 {
		t.Errorf("cheese stock = %v, want 50", s)
	}
	if n := countRows(t, db, &domain.Order{}); n != 0 {
		t.Errorf("order rows = %d, want 0", n)
	}
}

func TestPlaceOrderAggregatesSharedIngredient(t *testing.T) {
	db := newTestDB(t)
	// 500 g of cheese; two lines each need 250 g. Individually both fit, and
	// aggregated they exactly exhaust the stock.
	cheese := seedItem(t, db, "Cheese", 500, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	cheesy := seedProduct(t, db, "Cheesy Bread", 5.0)
	seedRecipeLine(t, db, pizza, cheese, 250, "grams")
	seedRecipeLine(t, db, cheesy, cheese, 250, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	_, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines: []OrderLine{
			{ProductID: pizza, Quantity: 1, Price: 9.5},
			{ProductID: cheesy, Quantity: 1, Price: 5.0},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s := stockOf(t, db, cheese); s != 0 {
		t.Errorf("cheese stock = %v, want 0", s)
	}

	// A third unit must now fail cleanly.
	_, err = coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines:         []OrderLine{{ProductID: pizza, Quantity: 1, Price: 9.5}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("got %v, want ErrInsufficientStock", err)
	}
}

func TestPlaceOrderConvertsRecipeUnits(t *testing.T) {
	db := newTestDB(t)
	// Stock in kilograms, recipe in grams.
	flour := seedItem(t, db, "Flour", 1, "kilograms")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 200, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	_, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines:         []OrderLine{{ProductID: pizza, Quantity: 3, Price: 9.5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 3 × 200 g = 0.6 kg consumed.
	if s := stockOf(t, db, flour); s != 0.4 {
		t.Errorf("flour stock = %v kg, want 0.4", s)
	}
}

func TestPlaceOrderUnmanagedProductSells(t *testing.T) {
	db := newTestDB(t)
	soda := seedProduct(t, db, "Bottled Soda", 2.0)

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	orderID, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines:         []OrderLine{{ProductID: soda, Quantity: 2, Price: 2.0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if orderID == 0 {
		t.Fatal("expected order id for unmanaged product")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	db := newTestDB(t)
	coord := NewCoordinator(db, NewStockLedger(db), nil)
	ctx := context.Background()

	cases := []*PlaceOrderRequest{
		{UserID: 7, PaymentStatus: "paid"},
		{UserID: 7, Lines: []OrderLine{{ProductID: 1, Quantity: 0, Price: 1}}},
		{UserID: 7, Lines: []OrderLine{{ProductID: 1, Quantity: 1, Price: -1}}},
		{Lines: []OrderLine{{ProductID: 1, Quantity: 1, Price: 1}}},
	}
	for i, req := range cases {
		if _, err := coord.PlaceOrder(ctx, req); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: got %v, want ErrValidation", i, err)
		}
	}
}

func TestPlaceOrderConcurrentNoOversell(t *testing.T) {
	db := newTestDB(t)
	// Enough flour for exactly 4 pizzas.
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coord.PlaceOrder(ctx, &PlaceOrderRequest{
				CustomerID:    1,
				UserID:        7,
				PaymentStatus: "paid",
				Lines:         []OrderLine{{ProductID: pizza, Quantity: 1, Price: 9.5}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 4 {
		t.Errorf("%d orders succeeded, want 4", succeeded)
	}
	if s := stockOf(t, db, flour); s != 0 {
		t.Errorf("flour stock = %v, want 0", s)
	}
	if n := countRows(t, db, &domain.Order{}); n != 4 {
		t.Errorf("order rows = %d, want 4", n)
	}
}

func TestPlaceOrderEmitsStockEvents(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 250, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")

	bus := EventBus.New()
	var mu sync.Mutex
	var depleted []StockEvent
	_ = bus.Subscribe(EventStockDepleted, func(ev StockEvent) {
		mu.Lock()
		depleted = append(depleted, ev)
		mu.Unlock()
	})

	coord := NewCoordinator(db, NewStockLedger(db), bus)

	_, err := coord.PlaceOrder(context.Background(), &PlaceOrderRequest{
		CustomerID:    1,
		UserID:        7,
		PaymentStatus: "paid",
		Lines:         []OrderLine{{ProductID: pizza, Quantity: 1, Price: 9.5}},
	})
	if err != nil {
		t.Fatal(err)
	}

	bus.WaitAsync()
	mu.Lock()
	defer mu.Unlock()
	if len(depleted) != 1 || depleted[0].ItemName != "Flour" {
		t.Errorf("depleted events = %+v, want one for Flour", depleted)
	}
}

func TestAdjustStockConvertsUnits(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	item, err := coord.AdjustStock(context.Background(), flour, 2, "kilograms")
	if err != nil {
		t.Fatal(err)
	}
	if item.StockQuantity != 2000 || item.UnitOfMeasure != "grams" {
		t.Errorf("item = %v %s, want 2000 grams", item.StockQuantity, item.UnitOfMeasure)
	}
}

func TestAdjustStockIncompatibleUnit(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")

	coord := NewCoordinator(db, NewStockLedger(db), nil)

	_, err := coord.AdjustStock(context.Background(), flour, 2, "liters")
	if err == nil {
		t.Fatal("expected unit conversion error")
	}
	if s := stockOf(t, db, flour); s != 1000 {
		t.Errorf("failed adjust changed stock: %v", s)
	}
}

func TestAdjustStockUnknownItem(t *testing.T) {
	db := newTestDB(t)
	coord := NewCoordinator(db, NewStockLedger(db), nil)

	if _, err := coord.AdjustStock(context.Background(), 424242, 1, "grams"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
