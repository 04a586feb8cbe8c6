package model

import "time"

// OrderSide is the side of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType is the execution type of an order.
type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// TimeInForce is the order duration.
type TimeInForce string

const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
)

// OrderStatus mirrors the broker's order state machine. The broker owns the
// true state; these values are only ever read back from it.
type OrderStatus string

const (
	StatusNew             OrderStatus = "new"
	StatusAccepted        OrderStatus = "accepted"
	StatusHeld            OrderStatus = "held"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusCanceled        OrderStatus = "canceled"
	StatusRejected        OrderStatus = "rejected"
)

// Open reports whether the status still awaits a fill or cancel.
func (s OrderStatus) Open() bool {
	switch s {
	case StatusNew, StatusAccepted, StatusHeld, StatusPartiallyFilled:
		return true
	}
	return false
}

// Order is a broker-owned order snapshot.
type Order struct {
	ID             string
	Symbol         string
	Side           OrderSide
	Qty            int
	Type           OrderType
	LimitPrice     float64
	TimeInForce    TimeInForce
	Status         OrderStatus
	FilledQty      int
	FilledAvgPrice float64
	CreatedAt      time.Time
	FilledAt       time.Time
}

// Position is a read-only holding snapshot from the broker.
type Position struct {
	Symbol        string
	Qty           int
	AvgEntryPrice float64
	CurrentPrice  float64
	UnrealizedPL  float64
}

// Account is the broker account summary.
type Account struct {
	Equity      float64
	Cash        float64
	BuyingPower float64
	LastEquity  float64
}
