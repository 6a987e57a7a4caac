// Package reporting aggregates committed sales for the dashboard, exports
// them to CSV/Excel, and moves closed orders into the archive tables.
package reporting

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// salesRow is one order line joined with its order, operator and customer.
type salesRow struct {
	OrderID      int64     `json:"order_id,string"`
	Username     string    `json:"username"`
	CustomerName string    `json:"customer_name"`
	AmountPaid   float64   `json:"amount_paid"`
	TotalAmount  float64   `json:"total_amount"`
	OrderDate    time.Time `json:"order_date"`
	ProductName  string    `json:"product_name"`
	UnitPrice    float64   `json:"unit_price"`
	Quantity     int       `json:"quantity"`
}

// SalesEntry is one order formatted for the sales table, with its products
// collapsed into display strings.
type SalesEntry struct {
	OrderID      int64     `json:"order_id,string"`
	Username     string    `json:"username"`
	ProductName  string    `json:"product_name"`
	Quantity     string    `json:"quantity"`
	CustomerName string    `json:"customer_name"`
	AmountPaid   float64   `json:"amount_paid"`
	TotalAmount  float64   `json:"total_amount"`
	OrderDate    time.Time `json:"order_date"`
}

// Summary carries headline statistics over the selected period.
type Summary struct {
	Orders      int     `json:"orders"`
	Revenue     float64 `json:"revenue"`
	MeanOrder   float64 `json:"mean_order"`
	MedianOrder float64 `json:"median_order"`
}

type Report struct {
	Entries      []SalesEntry                  `json:"data"`
	MonthlyChart map[string]map[string]float64 `json:"chartData"`
	DailyChart   map[string]map[string]float64 `json:"dailyChartData"`
	Summary      Summary                       `json:"summary"`
}

// ParseRange turns free-form from/to parameters into a half-open interval.
// Empty strings leave the corresponding bound open.
func ParseRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if s := strings.TrimSpace(from); s != "" {
		start, err = dateparse.ParseAny(s)
		if err != nil {
			return start, end, errors.Wrap(err, "parse 'from' date")
		}
	}
	if s := strings.TrimSpace(to); s != "" {
		end, err = dateparse.ParseAny(s)
		if err != nil {
			return start, end, errors.Wrap(err, "parse 'to' date")
		}
	}
	return start, end, nil
}

func (s *Service) fetchRows(ctx context.Context, start, end time.Time) ([]salesRow, error) {
	q := s.db.WithContext(ctx).Model(&domain.Order{}).
		Select(`orders.id AS order_id,
sys_opr.username,
customer.name AS customer_name,
customer.total_amount AS amount_paid,
orders.total_amount,
orders.order_date,
product.name AS product_name,
product.price AS unit_price,
order_item.quantity`).
		Joins("JOIN sys_opr ON orders.user_id = sys_opr.id").
		Joins("JOIN order_item ON orders.id = order_item.order_id").
		Joins("JOIN product ON order_item.product_id = product.id").
		Joins("JOIN customer ON orders.customer_id = customer.id").
		Order("orders.order_date DESC")
	if !start.IsZero() {
		q = q.Where("orders.order_date >= ?", start)
	}
	if !end.IsZero() {
		q = q.Where("orders.order_date < ?", end)
	}

	var rows []salesRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query sales rows")
	}
	return rows, nil
}

// SalesData builds the sales table, chart series and summary statistics for
// the given period.
func (s *Service) SalesData(ctx context.Context, start, end time.Time) (*Report, error) {
	rows, err := s.fetchRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	type group struct {
		entry      SalesEntry
		products   []string
		quantities []string
	}
	groups := make(map[int64]*group)
	var orderIDs []int64

	monthly := make(map[string]map[string]float64)
	daily := make(map[string]map[string]float64)

	for _, row := range rows {
		g, ok := groups[row.OrderID]
		if !ok {
			g = &group{entry: SalesEntry{
				OrderID:      row.OrderID,
				Username:     row.Username,
				CustomerName: row.CustomerName,
				AmountPaid:   row.AmountPaid,
				TotalAmount:  row.TotalAmount,
				OrderDate:    row.OrderDate,
			}}
			groups[row.OrderID] = g
			orderIDs = append(orderIDs, row.OrderID)
		}
		g.products = append(g.products, row.ProductName)
		g.quantities = append(g.quantities, strconv.Itoa(row.Quantity))

		lineTotal := row.UnitPrice * float64(row.Quantity)
		month := row.OrderDate.Format("2006-01")
		day := row.OrderDate.Format("2006-01-02")
		if monthly[month] == nil {
			monthly[month] = make(map[string]float64)
		}
		if daily[day] == nil {
			daily[day] = make(map[string]float64)
		}
		monthly[month][row.ProductName] += lineTotal
		daily[day][row.ProductName] += lineTotal
	}

	report := &Report{
		Entries:      make([]SalesEntry, 0, len(groups)),
		MonthlyChart: monthly,
		DailyChart:   daily,
	}

	var totals []float64
	for _, id := range orderIDs {
		g := groups[id]
		g.entry.ProductName = strings.Join(g.products, ", ")
		g.entry.Quantity = strings.Join(g.quantities, ", ")
		report.Entries = append(report.Entries, g.entry)
		totals = append(totals, g.entry.TotalAmount)
	}

	report.Summary.Orders = len(totals)
	if len(totals) > 0 {
		sum, _ := stats.Sum(totals)
		mean, _ := stats.Mean(totals)
		median, _ := stats.Median(totals)
		report.Summary.Revenue = sum
		report.Summary.MeanOrder = mean
		report.Summary.MedianOrder = median
	}
	return report, nil
}

// LowStockItem is an inventory item at or below the alert threshold.
type LowStockItem struct {
	InventoryID   int64   `json:"inventory_id,string"`
	ItemName      string  `json:"item_name"`
	StockQuantity float64 `json:"stock_quantity"`
	UnitOfMeasure string  `json:"unit_of_measure"`
}

// LowStock lists ingredients whose stock is at or below threshold, in their
// stored units.
func (s *Service) LowStock(ctx context.Context, threshold float64) ([]LowStockItem, error) {
	var items []LowStockItem
	err := s.db.WithContext(ctx).Model(&domain.InventoryItem{}).
		Select("id AS inventory_id, item_name, stock_quantity, unit_of_measure").
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC").
		Scan(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "query low stock")
	}
	return items, nil
}

// Archive copies the given order headers into archived_sales and purges the
// live rows (sales, receipts, order lines, order) in one transaction.
// Inventory is untouched: archiving is bookkeeping, not a reversal.
func (s *Service) Archive(ctx context.Context, orderIDs []int64, archivedBy int64) (int, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	sort.Slice(orderIDs, func(i, j int) bool { return orderIDs[i] < orderIDs[j] })

	archived := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range orderIDs {
			var order domain.Order
			err := tx.First(&order, id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return errors.Wrap(err, "load order")
			}

			rec := domain.ArchivedSale{
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				OrderDate:     order.OrderDate,
				TotalAmount:   order.TotalAmount,
				UserID:        order.UserID,
				PaymentStatus: order.PaymentStatus,
				ArchivedDate:  time.Now(),
				ArchivedBy:    archivedBy,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return errors.Wrap(err, "write archive record")
			}

			// Delete dependents before the order row.
			for _, m := range []interface{}{&domain.Sale{}, &domain.Receipt{}, &domain.OrderItem{}} {
				if err := tx.Where("order_id = ?", id).Delete(m).Error; err != nil {
					return errors.Wrap(err, "purge order dependents")
				}
			}
			if err := tx.Delete(&domain.Order{}, id).Error; err != nil {
				return errors.Wrap(err, "purge order")
			}
			archived++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return archived, nil
}

// ArchiveOlderThan archives every order whose order_date is before cutoff.
// Used by the nightly job.
func (s *Service) ArchiveOlderThan(ctx context.Context, cutoff time.Time, archivedBy int64) (int, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_date < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, errors.Wrap(err, "list stale orders")
	}
	return s.Archive(ctx, ids, archivedBy)
}
