package inventory

import (
	"context"
	"math"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/brewpos/brewpos/internal/measure"
)

// IngredientStatus is the per-ingredient detail behind an availability
// answer. Required is for one product unit, converted to the stock unit.
type IngredientStatus struct {
	InventoryID int64   `json:"inventory_id,string"`
	ItemName    string  `json:"item_name"`
	Required    float64 `json:"required"`
	Available   float64 `json:"available"`
	Unit        string  `json:"unit"`
	Possible    int     `json:"possible"`
}

// Availability answers "can we make N of this product right now".
type Availability struct {
	Available   bool               `json:"is_available"`
	MaxQuantity int                `json:"max_quantity"`
	Reason      string             `json:"reason,omitempty"`
	Ingredients []IngredientStatus `json:"ingredients"`
}

// Evaluator computes availability from recipes and current stock. It is
// read-only: checking any number of times leaves stock untouched.
type Evaluator struct {
	recipes *RecipeRepository
}

func NewEvaluator(recipes *RecipeRepository) *Evaluator {
	return &Evaluator{recipes: recipes}
}

// evaluate computes availability from already-fetched recipe lines.
func evaluate(lines []RecipeLine, requested int) (*Availability, error) {
	if len(lines) == 0 {
		// A product without a recipe is unmanaged; the evaluator never
		// confirms it as available.
		return &Availability{
			Available:   false,
			MaxQuantity: 0,
			Reason:      "no recipe defined for this product",
			Ingredients: []IngredientStatus{},
		}, nil
	}

	result := &Availability{
		MaxQuantity: math.MaxInt32,
		Ingredients: make([]IngredientStatus, 0, len(lines)),
	}

	for _, line := range lines {
		if line.QuantityNeeded <= 0 {
			return nil, errors.Wrapf(ErrInvalidRecipe,
				"ingredient %q needs non-positive quantity %v", line.ItemName, line.QuantityNeeded)
		}

		need, err := measure.Convert(line.QuantityNeeded, line.RecipeUnit, line.StockUnit)
		if err != nil {
			return nil, err
		}
		if need <= 0 {
			return nil, errors.Wrapf(ErrInvalidRecipe,
				"ingredient %q requirement converts to %v %s", line.ItemName, need, line.StockUnit)
		}

		possible := int(math.Floor(line.StockQuantity / need))
		if possible < 0 {
			possible = 0
		}
		// The most restrictive ingredient sets the ceiling.
		if possible < result.MaxQuantity {
			result.MaxQuantity = possible
		}

		result.Ingredients = append(result.Ingredients, IngredientStatus{
			InventoryID: line.InventoryID,
			ItemName:    line.ItemName,
			Required:    need,
			Available:   line.StockQuantity,
			Unit:        line.StockUnit,
			Possible:    possible,
		})
	}

	result.Available = result.MaxQuantity >= requested
	if !result.Available {
		result.Reason = "insufficient ingredients"
	}
	return result, nil
}

// CheckAvailability reports whether requested units of a product can be made
// from current stock, and the maximum producible quantity.
func (e *Evaluator) CheckAvailability(ctx context.Context, productID int64, requested int) (*Availability, error) {
	if requested < 1 {
		return nil, &ValidationError{Msg: "requested quantity must be at least 1"}
	}
	lines, err := e.recipes.IngredientsFor(ctx, productID)
	if err != nil {
		return nil, err
	}
	return evaluate(lines, requested)
}

// MaxQuantity returns the maximum producible quantity for a product. A
// product without a recipe is an error here, unlike CheckAvailability which
// reports it as unavailable.
func (e *Evaluator) MaxQuantity(ctx context.Context, productID int64) (int, error) {
	lines, err := e.recipes.IngredientsFor(ctx, productID)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, ErrNoRecipe
	}
	avail, err := evaluate(lines, 1)
	if err != nil {
		return 0, err
	}
	return avail.MaxQuantity, nil
}

// batchPoolSize bounds concurrent per-product evaluation in BatchCheck.
const batchPoolSize = 8

// BatchCheck evaluates availability of one unit for many products at once,
// for menu screens. Product IDs without recipe rows are present in the result
// as unavailable; a conversion or recipe fault on one product marks only that
// product unavailable instead of failing the batch.
func (e *Evaluator) BatchCheck(ctx context.Context, productIDs []int64) (map[int64]*Availability, error) {
	grouped, err := e.recipes.IngredientsForMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	results := make(map[int64]*Availability, len(grouped))
	var mu sync.Mutex
	var wg sync.WaitGroup

	pool, err := ants.NewPool(batchPoolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	for id, lines := range grouped {
		id, lines := id, lines
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			avail, err := evaluate(lines, 1)
			if err != nil {
				avail = &Availability{
					Available:   false,
					MaxQuantity: 0,
					Reason:      err.Error(),
					Ingredients: []IngredientStatus{},
				}
			}
			mu.Lock()
			results[id] = avail
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}
	wg.Wait()

	return results, nil
}
