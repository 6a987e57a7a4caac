package inventory

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
)

// RecipeLine is one ingredient requirement joined with the ingredient's
// current stock. QuantityNeeded is per single product unit, in RecipeUnit;
// StockQuantity is in StockUnit.
type RecipeLine struct {
	ProductID      int64   `json:"product_id,string"`
	InventoryID    int64   `json:"inventory_id,string"`
	ItemName       string  `json:"item_name"`
	QuantityNeeded float64 `json:"quantity_needed"`
	RecipeUnit     string  `json:"recipe_unit"`
	StockQuantity  float64 `json:"stock_quantity"`
	StockUnit      string  `json:"stock_unit"`
}

// RecipeRepository reads recipe definitions. It never mutates anything.
type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeSelect = `product_ingredients.product_id,
product_ingredients.inventory_id,
inventory.item_name,
product_ingredients.quantity_needed,
product_ingredients.unit_of_measure AS recipe_unit,
inventory.stock_quantity,
inventory.unit_of_measure AS stock_unit`

// IngredientsFor returns the recipe lines for one product. An empty slice
// means the product has no recipe, which callers treat as "not managed by
// inventory" rather than "cannot be sold".
func (r *RecipeRepository) IngredientsFor(ctx context.Context, productID int64) ([]RecipeLine, error) {
	return ingredientsFor(r.db.WithContext(ctx), productID)
}

// ingredientsFor runs against an explicit handle so the consumption
// coordinator can re-read inside its own transaction.
func ingredientsFor(tx *gorm.DB, productID int64) ([]RecipeLine, error) {
	var lines []RecipeLine
	err := tx.Model(&domain.ProductIngredient{}).
		Select(recipeSelect).
		Joins("JOIN inventory ON inventory.id = product_ingredients.inventory_id").
		Where("product_ingredients.product_id = ?", productID).
		Scan(&lines).Error
	if err != nil {
		return nil, errors.Wrap(err, "query recipe lines")
	}
	return lines, nil
}

// IngredientsForMany returns recipe lines grouped by product. Every requested
// product ID is present in the result; products without recipe rows map to an
// empty slice.
func (r *RecipeRepository) IngredientsForMany(ctx context.Context, productIDs []int64) (map[int64][]RecipeLine, error) {
	result := make(map[int64][]RecipeLine, len(productIDs))
	for _, id := range productIDs {
		result[id] = []RecipeLine{}
	}
	if len(productIDs) == 0 {
		return result, nil
	}

	var lines []RecipeLine
	err := r.db.WithContext(ctx).Model(&domain.ProductIngredient{}).
		Select(recipeSelect).
		Joins("JOIN inventory ON inventory.id = product_ingredients.inventory_id").
		Where("product_ingredients.product_id IN ?", productIDs).
		Scan(&lines).Error
	if err != nil {
		return nil, errors.Wrap(err, "query recipe lines")
	}

	for _, line := range lines {
		result[line.ProductID] = append(result[line.ProductID], line)
	}
	return result, nil
}

// ProductsUsing lists which products consume a given inventory item, for the
// "where is this ingredient used" screen.
type ProductUsage struct {
	ProductName    string  `json:"product_name"`
	Category       string  `json:"category"`
	QuantityNeeded float64 `json:"quantity_needed"`
	UnitOfMeasure  string  `json:"unit_of_measure"`
}

func (r *RecipeRepository) ProductsUsing(ctx context.Context, inventoryID int64) ([]ProductUsage, error) {
	var usages []ProductUsage
	err := r.db.WithContext(ctx).Model(&domain.ProductIngredient{}).
		Select(`product.name AS product_name,
product.category,
product_ingredients.quantity_needed,
product_ingredients.unit_of_measure`).
		Joins("JOIN product ON product.id = product_ingredients.product_id").
		Where("product_ingredients.inventory_id = ?", inventoryID).
		Scan(&usages).Error
	if err != nil {
		return nil, errors.Wrap(err, "query ingredient usage")
	}
	return usages, nil
}
