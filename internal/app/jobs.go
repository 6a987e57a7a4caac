package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/brewpos/brewpos/internal/inventory"
	"github.com/brewpos/brewpos/internal/reporting"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 10m", func() {
		go a.SchedLowStockScan()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedArchiveStaleOrders()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedLowStockScan publishes a bus event for every ingredient at or below
// the configured threshold. The notifier turns them into alerts.
func (a *Application) SchedLowStockScan() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	threshold := a.ConfigMgr().GetFloat64("inventory", "LowStockThreshold")
	if threshold <= 0 {
		threshold = 10
	}

	items, err := reporting.NewService(a.gormDB).LowStock(context.Background(), threshold)
	if err != nil {
		zap.L().Error("low stock scan failed", zap.Error(err))
		return
	}

	for _, item := range items {
		event := inventory.EventStockLow
		if item.StockQuantity <= 0 {
			event = inventory.EventStockDepleted
		}
		a.bus.Publish(event, inventory.StockEvent{
			InventoryID: item.InventoryID,
			ItemName:    item.ItemName,
			Remaining:   item.StockQuantity,
			Unit:        item.UnitOfMeasure,
		})
	}
	if len(items) > 0 {
		zap.L().Info("low stock scan", zap.Int("flagged", len(items)))
	}
}

// SchedArchiveStaleOrders moves orders past the retention window into the
// archive tables.
func (a *Application) SchedArchiveStaleOrders() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	if !a.ConfigMgr().GetBool("sales", "ArchiveEnabled") {
		return
	}
	idays := a.ConfigMgr().GetInt("sales", "ArchiveRetentionDays")
	if idays == 0 {
		idays = 90
	}

	cutoff := time.Now().Add(-time.Hour * 24 * time.Duration(idays))
	n, err := reporting.NewService(a.gormDB).
		ArchiveOlderThan(context.Background(), cutoff, 0)
	if err != nil {
		zap.L().Error("nightly archive failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("nightly archive", zap.Int("orders", n), zap.Time("cutoff", cutoff))
	}
}
