package backtest

import (
	"errors"
	"math"

	"OptionPilot/internal/calculator"
	"OptionPilot/internal/model"
)

// Exit reasons recorded in the trade log.
const (
	ReasonBrokeLongSMA = "broke long SMA"
	ReasonStopLoss     = "stop loss"
)

// ErrInsufficientBars means the series is too short to warm up the long SMA
// before the simulation window opens.
var ErrInsufficientBars = errors.New("backtest: not enough bars for the configured windows")

// DefaultParams mirror the live classifier: 20/200 SMA windows, buy only
// below RSI 70, cut losses 10% under the entry.
var DefaultParams = model.BacktestParams{
	InitialCapital: 10000,
	ShortWindow:    20,
	LongWindow:     200,
	RSICeiling:     70,
	StopLossPct:    0.10,
}

// Engine replays a long-only strategy over historical bars. It shares the
// indicator math with the live path but never touches a broker; fills are
// assumed at the close of the signal bar.
type Engine struct {
	Params model.BacktestParams
}

// NewEngine creates an engine, filling zero-valued params from DefaultParams.
func NewEngine(p model.BacktestParams) *Engine {
	if p.InitialCapital <= 0 {
		p.InitialCapital = DefaultParams.InitialCapital
	}
	if p.ShortWindow <= 0 {
		p.ShortWindow = DefaultParams.ShortWindow
	}
	if p.LongWindow <= 0 {
		p.LongWindow = DefaultParams.LongWindow
	}
	if p.RSICeiling <= 0 {
		p.RSICeiling = DefaultParams.RSICeiling
	}
	if p.StopLossPct <= 0 {
		p.StopLossPct = DefaultParams.StopLossPct
	}
	return &Engine{Params: p}
}

// Run simulates the strategy over bars. The same input always produces the
// same report; there is no randomness or wall-clock dependence.
//
// Per bar, once warmed up:
//   - flat, close above the short SMA and RSI under the ceiling: buy as many
//     whole shares as cash allows at the close
//   - long, close below the long SMA or below the stop level: sell the whole
//     position at the close
//
// Equity (cash + position value) is sampled every bar.
func (e *Engine) Run(symbol string, bars []model.OHLCV) (model.BacktestReport, error) {
	p := e.Params

	start := p.LongWindow
	if start < 50 {
		start = 50
	}
	if len(bars) <= start {
		return model.BacktestReport{}, ErrInsufficientBars
	}

	closes := model.Closes(bars)
	smaShort := calculator.SMASeries(closes, p.ShortWindow)
	smaLong := calculator.SMASeries(closes, p.LongWindow)
	rsi, _, _ := calculator.RSISeries(closes, calculator.DefaultRSIPeriod)

	cash := p.InitialCapital
	qty := 0
	entryPrice := 0.0
	var trades []model.BacktestTrade
	curve := make([]model.EquityPoint, 0, len(bars)-start)
	wins, sells := 0, 0

	for i := start; i < len(bars); i++ {
		price := closes[i]

		if qty == 0 {
			if price > smaShort[i] && rsi[i] < p.RSICeiling {
				buyQty := int(cash / price)
				if buyQty > 0 {
					qty = buyQty
					entryPrice = price
					cash -= float64(buyQty) * price
					trades = append(trades, model.BacktestTrade{
						Time:   bars[i].Time,
						Action: "BUY",
						Price:  price,
						Qty:    buyQty,
					})
				}
			}
		} else {
			stopLevel := entryPrice * (1 - p.StopLossPct)
			exit := false
			reason := ""
			switch {
			case price <= stopLevel:
				exit, reason = true, ReasonStopLoss
			case price < smaLong[i]:
				exit, reason = true, ReasonBrokeLongSMA
			}
			if exit {
				profit := (price - entryPrice) * float64(qty)
				cash += float64(qty) * price
				trades = append(trades, model.BacktestTrade{
					Time:      bars[i].Time,
					Action:    "SELL",
					Price:     price,
					Qty:       qty,
					Profit:    profit,
					ProfitPct: (price - entryPrice) / entryPrice * 100,
					Reason:    reason,
				})
				sells++
				if profit > 0 {
					wins++
				}
				qty = 0
				entryPrice = 0
			}
		}

		curve = append(curve, model.EquityPoint{
			Time:   bars[i].Time,
			Equity: cash + float64(qty)*price,
		})
	}

	finalEquity := cash
	if qty > 0 {
		finalEquity += float64(qty) * closes[len(closes)-1]
	}

	report := model.BacktestReport{
		Symbol:           symbol,
		FinalEquity:      round2(finalEquity),
		TotalReturnPct:   round2((finalEquity - p.InitialCapital) / p.InitialCapital * 100),
		TradeCount:       sells,
		BuyHoldReturnPct: round2((closes[len(closes)-1] - closes[start]) / closes[start] * 100),
		NoTrades:         len(trades) == 0,
		Trades:           trades,
		EquityCurve:      curve,
	}
	if sells > 0 {
		report.WinRate = round2(float64(wins) / float64(sells) * 100)
	}
	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
