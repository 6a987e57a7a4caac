package domain

import "time"

type Customer struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"customer_id,string"`
	Name        string    `gorm:"index" json:"name"`
	TotalAmount float64   `json:"total_amount"` // amount tendered
	CreatedAt   time.Time `json:"created_at"`
}

// TableName Specify table name
func (Customer) TableName() string {
	return "customer"
}

// CartItem is a per-operator staging line; one row per (user, product).
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"cart_id,string"`
	ProductID int64     `gorm:"index;uniqueIndex:idx_cart_user_product" json:"product_id,string"`
	UserID    int64     `gorm:"index;uniqueIndex:idx_cart_user_product" json:"user_id,string"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "cart"
}

// Order is immutable once committed; removal goes through the archive flow.
type Order struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"order_id,string"`
	CustomerID    int64     `gorm:"index" json:"customer_id,string"`
	OrderDate     time.Time `json:"order_date"`
	TotalAmount   float64   `json:"total_amount"`
	UserID        int64     `gorm:"index" json:"user_id,string"`
	PaymentStatus string    `gorm:"size:32" json:"payment_status"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"order_item_id,string"`
	OrderID   int64   `gorm:"index" json:"order_id,string"`
	ProductID int64   `gorm:"index" json:"product_id,string"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // unit price at time of order
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_item"
}

type Sale struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"sale_id,string"`
	OrderID    int64     `gorm:"index" json:"order_id,string"`
	TotalSales float64   `json:"total_sales"`
	SalesDate  time.Time `json:"sales_date"`
	UserID     int64     `gorm:"index" json:"user_id,string"`
}

// TableName Specify table name
func (Sale) TableName() string {
	return "sales"
}

type Receipt struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"receipt_id,string"`
	OrderID     int64     `gorm:"index" json:"order_id,string"`
	GeneratedAt time.Time `json:"generated_at"`
	TotalAmount float64   `json:"total_amount"`
}

// TableName Specify table name
func (Receipt) TableName() string {
	return "receipt"
}

// ArchivedSale preserves an order header after the live rows are purged.
type ArchivedSale struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"archive_id,string"`
	OrderID       int64     `gorm:"index" json:"order_id,string"`
	CustomerID    int64     `json:"customer_id,string"`
	OrderDate     time.Time `json:"order_date"`
	TotalAmount   float64   `json:"total_amount"`
	UserID        int64     `json:"user_id,string"`
	PaymentStatus string    `gorm:"size:32" json:"payment_status"`
	ArchivedDate  time.Time `json:"archived_date"`
	ArchivedBy    int64     `json:"archived_by,string"`
}

// TableName Specify table name
func (ArchivedSale) TableName() string {
	return "archived_sales"
}
