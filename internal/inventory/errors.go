package inventory

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel kinds for errors.Is branching. Callers dispatch on kind, never on
// message text.
var (
	ErrNotFound          = errors.New("inventory: not found")
	ErrNoRecipe          = errors.New("inventory: no recipe defined")
	ErrInvalidRecipe     = errors.New("inventory: invalid recipe")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrTransaction       = errors.New("inventory: transaction failed")
	ErrValidation        = errors.New("inventory: invalid request")
)

// Shortfall describes one ingredient that cannot cover the requested
// consumption. Quantities are in the ingredient's stored unit.
type Shortfall struct {
	InventoryID int64   `json:"inventory_id,string"`
	ItemName    string  `json:"item_name"`
	Required    float64 `json:"required"`
	Available   float64 `json:"available"`
	Unit        string  `json:"unit"`
}

// InsufficientStockError reports every ingredient that bound an order
// attempt. It is terminal for the request: retrying verbatim cannot succeed.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	names := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		names = append(names, s.ItemName)
	}
	return fmt.Sprintf("insufficient stock: %s", strings.Join(names, ", "))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransactionError wraps an unexpected storage failure after rollback. The
// caller may retry the request.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction error in %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransaction
}

// ValidationError rejects malformed input with a caller-facing message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
