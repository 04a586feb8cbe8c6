package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"OptionPilot/internal/model"
)

// PaperBroker is an in-memory execution backend used for dry runs and
// tests. Fill behavior is scripted: a submitted order fills after
// FillAfterPolls status queries at FillPrice (limit price when zero).
type PaperBroker struct {
	mu sync.Mutex

	// Scripted behavior.
	FillAfterPolls int     // 0 = fill on first GetOrder
	FillPrice      float64 // 0 = fill at the order's limit price
	RejectSubmit   bool    // next SubmitOrder comes back rejected
	SubmitErr      error   // returned verbatim from SubmitOrder
	SubmitErrSkip  int     // submits to let through before SubmitErr applies
	GetOrderErr    error   // returned verbatim from GetOrder
	NeverFill      bool    // orders stay open forever

	orders    map[string]*model.Order
	polls     map[string]int
	positions map[string]*model.Position
	account   model.Account

	// Call log for asserting side effects.
	Submitted []OrderRequest
	Canceled  []string
}

// NewPaperBroker creates an empty paper broker with a default account.
func NewPaperBroker() *PaperBroker {
	return &PaperBroker{
		orders:    make(map[string]*model.Order),
		polls:     make(map[string]int),
		positions: make(map[string]*model.Position),
		account:   model.Account{Equity: 100000, Cash: 100000, BuyingPower: 200000, LastEquity: 100000},
	}
}

func (p *PaperBroker) Name() string { return "paper" }

// SetPosition seeds a holding for tests.
func (p *PaperBroker) SetPosition(pos model.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[pos.Symbol] = &pos
}

// SeedOpenOrder places a pre-existing open order into the book.
func (p *PaperBroker) SeedOpenOrder(o model.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	p.orders[o.ID] = &o
}

func (p *PaperBroker) SubmitOrder(_ context.Context, req OrderRequest) (model.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SubmitErr != nil {
		if p.SubmitErrSkip > 0 {
			p.SubmitErrSkip--
		} else {
			err := p.SubmitErr
			p.SubmitErr = nil
			return model.Order{}, err
		}
	}

	o := model.Order{
		ID:          uuid.New().String(),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         req.Qty,
		Type:        req.Type,
		LimitPrice:  req.LimitPrice,
		TimeInForce: req.TimeInForce,
		Status:      model.StatusNew,
		CreatedAt:   time.Now().UTC(),
	}
	if p.RejectSubmit {
		p.RejectSubmit = false
		o.Status = model.StatusRejected
	}
	p.orders[o.ID] = &o
	p.Submitted = append(p.Submitted, req)
	return o, nil
}

func (p *PaperBroker) GetOrder(_ context.Context, id string) (model.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.GetOrderErr != nil {
		err := p.GetOrderErr
		p.GetOrderErr = nil
		return model.Order{}, err
	}

	o, ok := p.orders[id]
	if !ok {
		return model.Order{}, &BrokerError{Op: "get order", Message: "order not found: " + id}
	}
	if o.Status.Open() && !p.NeverFill {
		p.polls[id]++
		if p.polls[id] > p.FillAfterPolls {
			price := p.FillPrice
			if price == 0 {
				price = o.LimitPrice
			}
			o.Status = model.StatusFilled
			o.FilledQty = o.Qty
			o.FilledAvgPrice = price
			o.FilledAt = time.Now().UTC()
		}
	}
	return *o, nil
}

func (p *PaperBroker) CancelOrder(_ context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[id]
	if !ok || !o.Status.Open() {
		return false, nil
	}
	o.Status = model.StatusCanceled
	p.Canceled = append(p.Canceled, id)
	return true, nil
}

func (p *PaperBroker) ListOpenOrders(_ context.Context, symbol string) ([]model.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []model.Order
	for _, o := range p.orders {
		if !o.Status.Open() {
			continue
		}
		if symbol != "" && o.Symbol != symbol {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (p *PaperBroker) ListPositions(_ context.Context) ([]model.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out, nil
}

func (p *PaperBroker) GetAccount(_ context.Context) (model.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.account, nil
}
