// Package broker defines the Gateway interface and provides the Alpaca
// implementation for account, position, and order operations.
package broker

import (
	"context"
	"errors"
	"fmt"

	"aibroker/internal/domain"
)

// ErrNotConfigured is returned by every Gateway operation when no
// credentials are present. The check happens before any network call.
var ErrNotConfigured = errors.New("broker: credentials not configured")

// CallError is the structured form of a failed brokerage call. StatusCode is
// zero for transport-level failures. A call is attempted exactly once; the
// gateway never retries.
type CallError struct {
	StatusCode int
	Message    string
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("brokerage call failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("brokerage call failed: %s", e.Message)
}

// Gateway abstracts brokerage operations for account management and order
// execution.
type Gateway interface {
	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*domain.AccountSnapshot, error)

	// GetPositions returns all current positions held at the brokerage.
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// GetPosition returns the position for one symbol, or a CallError with
	// StatusCode 404 when none exists.
	GetPosition(ctx context.Context, symbol string) (*domain.Position, error)

	// SubmitOrder validates and sends an order for execution.
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)

	// GetOrder retrieves a single order by its ID.
	GetOrder(ctx context.Context, orderID string) (*domain.OrderResult, error)

	// ListOrders returns orders filtered by status ("open", "closed", "all")
	// up to limit.
	ListOrders(ctx context.Context, status string, limit int) ([]domain.OrderResult, error)

	// CancelOrder requests cancellation of an open order by its ID.
	CancelOrder(ctx context.Context, orderID string) error

	// CancelAllOrders requests cancellation of every open order.
	CancelAllOrders(ctx context.Context) error
}
