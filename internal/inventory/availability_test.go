package inventory

import (
	"context"
	"errors"
	"testing"
)

func TestCheckAvailabilityPizzaFlour(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")

	eval := NewEvaluator(NewRecipeRepository(db))
	ctx := context.Background()

	got, err := eval.CheckAvailability(ctx, pizza, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Available || got.MaxQuantity != 4 {
		t.Errorf("4 pizzas: available=%v max=%d, want available max=4", got.Available, got.MaxQuantity)
	}

	got, err = eval.CheckAvailability(ctx, pizza, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available || got.MaxQuantity != 4 {
		t.Errorf("5 pizzas: available=%v max=%d, want unavailable max=4", got.Available, got.MaxQuantity)
	}
}

func TestCheckAvailabilityConvertsUnits(t *testing.T) {
	db := newTestDB(t)
	// 1 kilogram in stock, recipe authored in grams.
	flour := seedItem(t, db, "Flour", 1, "kilograms")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 200, "grams")

	eval := NewEvaluator(NewRecipeRepository(db))

	got, err := eval.CheckAvailability(context.Background(), pizza, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 200 g = 0.2 kg per unit; floor(1 / 0.2) = 5
	if got.MaxQuantity != 5 {
		t.Errorf("max = %d, want 5", got.MaxQuantity)
	}
}

func TestCheckAvailabilityMostRestrictiveWins(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	cheese := seedItem(t, db, "Cheese", 300, "grams")
	milk := seedItem(t, db, "Milk", 5, "liters")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams") // possible 4
	seedRecipeLine(t, db, pizza, cheese, 100, "grams") // possible 3
	seedRecipeLine(t, db, pizza, milk, 500, "milliliters") // possible 10

	eval := NewEvaluator(NewRecipeRepository(db))

	got, err := eval.CheckAvailability(context.Background(), pizza, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxQuantity != 3 {
		t.Errorf("max = %d, want 3 (cheese binds)", got.MaxQuantity)
	}
}

func TestCheckAvailabilityNoRecipe(t *testing.T) {
	db := newTestDB(t)
	soda := seedProduct(t, db, "Bottled Soda", 2.0)

	eval := NewEvaluator(NewRecipeRepository(db))

	got, err := eval.CheckAvailability(context.Background(), soda, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available || got.MaxQuantity != 0 {
		t.Errorf("no-recipe product: available=%v max=%d, want unavailable max=0", got.Available, got.MaxQuantity)
	}
	if got.Reason == "" {
		t.Error("expected a reason for the unavailable answer")
	}
}

func TestCheckAvailabilityZeroNeedIsInvalidRecipe(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 0, "grams")

	eval := NewEvaluator(NewRecipeRepository(db))

	_, err := eval.CheckAvailability(context.Background(), pizza, 1)
	if !errors.Is(err, ErrInvalidRecipe) {
		t.Errorf("got %v, want ErrInvalidRecipe", err)
	}
}

func TestCheckAvailabilityIsReadOnly(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")

	eval := NewEvaluator(NewRecipeRepository(db))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := eval.CheckAvailability(ctx, pizza, 2)
		if err != nil {
			t.Fatal(err)
		}
		if got.MaxQuantity != 4 {
			t.Fatalf("call %d: max = %d, want 4", i, got.MaxQuantity)
		}
	}
	if s := stockOf(t, db, flour); s != 1000 {
		t.Errorf("availability check mutated stock: %v", s)
	}
}

func TestMaxQuantityNoRecipe(t *testing.T) {
	db := newTestDB(t)
	soda := seedProduct(t, db, "Bottled Soda", 2.0)

	eval := NewEvaluator(NewRecipeRepository(db))

	if _, err := eval.MaxQuantity(context.Background(), soda); !errors.Is(err, ErrNoRecipe) {
		t.Errorf("got %v, want ErrNoRecipe", err)
	}
}

func TestBatchCheck(t *testing.T) {
	db := newTestDB(t)
	flour := seedItem(t, db, "Flour", 1000, "grams")
	pizza := seedProduct(t, db, "Pizza", 9.5)
	seedRecipeLine(t, db, pizza, flour, 250, "grams")
	soda := seedProduct(t, db, "Bottled Soda", 2.0)

	eval := NewEvaluator(NewRecipeRepository(db))

	const missingID = int64(99999)
	got, err := eval.BatchCheck(context.Background(), []int64{pizza, soda, missingID})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if !got[pizza].Available || got[pizza].MaxQuantity != 4 {
		t.Errorf("pizza: %+v", got[pizza])
	}
	if got[soda].Available {
		t.Errorf("soda without recipe should be unavailable: %+v", got[soda])
	}
	if got[missingID].Available || len(got[missingID].Ingredients) != 0 {
		t.Errorf("missing product should map to empty/unavailable: %+v", got[missingID])
	}
}

func TestIngredientsForManyKeepsEmptyProducts(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecipeRepository(db)

	got, err := repo.IngredientsForMany(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []int64{1, 2, 3} {
		lines, ok := got[id]
		if !ok {
			t.Errorf("product %d missing from result", id)
		}
		if len(lines) != 0 {
			t.Errorf("product %d: expected empty recipe, got %d lines", id, len(lines))
		}
	}
}
