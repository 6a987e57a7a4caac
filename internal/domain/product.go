package domain

import "time"

// Product is a sellable menu item. Size applies to categories that carry
// size variants (Pizza, Drinks); everything else uses "Standard".
type Product struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"product_id,string"`
	Name      string    `gorm:"index" json:"name"`
	Image     string    `gorm:"size:1024" json:"image"` // URL or upload path (optional)
	Price     float64   `json:"price"`
	Category  string    `gorm:"size:64;index" json:"category"`
	Size      string    `gorm:"size:32" json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "product"
}

// ProductIngredient is one recipe line: the amount of a single inventory
// item needed to produce one unit of the product. QuantityNeeded is
// expressed in UnitOfMeasure, which may differ from the inventory item's
// stored unit.
type ProductIngredient struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"product_ingredient_id,string"`
	ProductID      int64     `gorm:"index;uniqueIndex:idx_product_inventory" json:"product_id,string"`
	InventoryID    int64     `gorm:"index;uniqueIndex:idx_product_inventory" json:"inventory_id,string"`
	IngredientName string    `json:"ingredient_name"`
	QuantityNeeded float64   `json:"quantity_needed"`
	UnitOfMeasure  string    `gorm:"size:32" json:"unit_of_measure"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName Specify table name
func (ProductIngredient) TableName() string {
	return "product_ingredients"
}
