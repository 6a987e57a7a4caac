package domain

import "time"

// InventoryItem is one physical ingredient. StockQuantity is held in
// UnitOfMeasure and never goes negative at a committed state; it is mutated
// only through the stock ledger.
type InventoryItem struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"inventory_id,string"`
	ItemName      string    `gorm:"uniqueIndex" json:"item_name"`
	StockQuantity float64   `json:"stock_quantity"`
	UnitOfMeasure string    `gorm:"size:32" json:"unit_of_measure"`
	LastUpdated   time.Time `json:"last_updated"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName Specify table name
func (InventoryItem) TableName() string {
	return "inventory"
}
