package broker

import (
	"context"
	"fmt"

	"OptionPilot/internal/model"
)

// BrokerError carries the venue's failure message along with the call that
// produced it. All broker implementations wrap their failures in it so
// callers can surface the message verbatim to the operator.
type BrokerError struct {
	Op      string
	Message string
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("broker %s: %s", e.Op, e.Message)
}

// OrderRequest describes an order to submit. LimitPrice is ignored for
// market orders.
type OrderRequest struct {
	Symbol      string
	Side        model.OrderSide
	Qty         int
	Type        model.OrderType
	LimitPrice  float64
	TimeInForce model.TimeInForce
}

// Broker is the execution backend. It is the sole authority on order and
// position truth; callers never cache order status across a wait without
// re-querying.
type Broker interface {
	Name() string
	SubmitOrder(ctx context.Context, req OrderRequest) (model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	CancelOrder(ctx context.Context, id string) (bool, error)
	// ListOpenOrders returns open orders, optionally filtered to one symbol
	// (empty string means all).
	ListOpenOrders(ctx context.Context, symbol string) ([]model.Order, error)
	ListPositions(ctx context.Context) ([]model.Position, error)
	GetAccount(ctx context.Context) (model.Account, error)
}
