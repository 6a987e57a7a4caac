package app

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/brewpos/brewpos/internal/inventory"
)

// Notifier turns stock bus events into email alerts. Each ingredient is
// alerted at most once per cooldown window so a busy shift does not flood
// the inbox.
type Notifier struct {
	app      *Application
	mu       sync.Mutex
	lastSent map[int64]time.Time
	cooldown time.Duration
}

func NewNotifier(app *Application) *Notifier {
	return &Notifier{
		app:      app,
		lastSent: make(map[int64]time.Time),
		cooldown: 6 * time.Hour,
	}
}

func (n *Notifier) Subscribe() {
	if err := n.app.bus.Subscribe(inventory.EventStockLow, n.onStockEvent); err != nil {
		zap.L().Error("subscribe stock.low failed", zap.Error(err))
	}
	if err := n.app.bus.Subscribe(inventory.EventStockDepleted, n.onStockEvent); err != nil {
		zap.L().Error("subscribe stock.depleted failed", zap.Error(err))
	}
}

func (n *Notifier) onStockEvent(event inventory.StockEvent) {
	zap.L().Warn("stock alert",
		zap.String("item", event.ItemName),
		zap.Float64("remaining", event.Remaining),
		zap.String("unit", event.Unit))

	cfg := n.app.appConfig.Mail
	if !cfg.Enabled {
		return
	}

	n.mu.Lock()
	if last, found := n.lastSent[event.InventoryID]; found && time.Since(last) < n.cooldown {
		n.mu.Unlock()
		return
	}
	n.lastSent[event.InventoryID] = time.Now()
	n.mu.Unlock()

	subject := fmt.Sprintf("Low stock: %s", event.ItemName)
	if event.Remaining <= 0 {
		subject = fmt.Sprintf("Out of stock: %s", event.ItemName)
	}
	body := fmt.Sprintf("%s is down to %.4f %s.\r\nRestock before the next shift.",
		event.ItemName, event.Remaining, event.Unit)

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", strings.Split(cfg.To, ",")...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Error("failed to send stock alert", zap.Error(err))
		return
	}
	zap.L().Info("stock alert mailed", zap.String("item", event.ItemName))
}
