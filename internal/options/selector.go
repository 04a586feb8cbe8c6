package options

import (
	"errors"
	"math"
	"time"

	"OptionPilot/internal/model"
)

// ErrEmptyChain is returned when a chain snapshot has no contracts at all.
var ErrEmptyChain = errors.New("option chain is empty")

// SelectStrikes picks the conservative/balanced/aggressive contracts for a
// direction from a single-expiry chain snapshot.
//
//	ATM: contract minimizing |strike - underlying|
//	Call: ITM = highest strike below price, OTM = lowest strike above
//	Put:  ITM = lowest strike above price, OTM = highest strike below
//
// A missing side falls back to the ATM contract for that slot; the selection
// always returns three usable contracts.
func SelectStrikes(chain []model.OptionContract, underlying float64, dir model.Direction) (model.StrikeSelection, error) {
	if len(chain) == 0 {
		return model.StrikeSelection{}, ErrEmptyChain
	}

	atm := chain[0]
	bestDiff := math.Abs(chain[0].Strike - underlying)
	for _, c := range chain[1:] {
		if diff := math.Abs(c.Strike - underlying); diff < bestDiff {
			bestDiff = diff
			atm = c
		}
	}

	var itm, otm *model.OptionContract
	for i := range chain {
		c := &chain[i]
		switch dir {
		case model.DirectionPut:
			if c.Strike > underlying && (itm == nil || c.Strike < itm.Strike) {
				itm = c
			}
			if c.Strike < underlying && (otm == nil || c.Strike > otm.Strike) {
				otm = c
			}
		default: // call
			if c.Strike < underlying && (itm == nil || c.Strike > itm.Strike) {
				itm = c
			}
			if c.Strike > underlying && (otm == nil || c.Strike < otm.Strike) {
				otm = c
			}
		}
	}

	sel := model.StrikeSelection{Direction: dir, ITM: atm, ATM: atm, OTM: atm}
	if itm != nil {
		sel.ITM = *itm
	}
	if otm != nil {
		sel.OTM = *otm
	}
	return sel, nil
}

// FindByAskRange returns the first contract whose ask price falls inside
// [lo, hi], in chain order.
func FindByAskRange(chain []model.OptionContract, lo, hi float64) (model.OptionContract, bool) {
	for _, c := range chain {
		if c.Ask >= lo && c.Ask <= hi {
			return c, true
		}
	}
	return model.OptionContract{}, false
}

// DTE returns whole days to expiry, measured date-to-date.
func DTE(expiry, today time.Time) int {
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(n).Hours() / 24)
}

// ChooseExpiry prefers the expiry whose days-to-expiry falls in [30, 60],
// minimizing the distance from 45 days. When none qualifies it defaults to
// the first available expiry. Returns the chosen index; -1 when the list is
// empty.
func ChooseExpiry(expiries []time.Time, today time.Time) int {
	if len(expiries) == 0 {
		return -1
	}
	best := 0
	bestDiff := math.MaxInt
	found := false
	for i, e := range expiries {
		dte := DTE(e, today)
		if dte >= 30 && dte <= 60 {
			diff := dte - 45
			if diff < 0 {
				diff = -diff
			}
			if diff < bestDiff {
				bestDiff = diff
				best = i
				found = true
			}
		}
	}
	if !found {
		return 0
	}
	return best
}

// Bucket tags a days-to-expiry with its risk class. Informational only,
// never a selection constraint.
func Bucket(dte int) model.RiskBucket {
	switch {
	case dte < 7:
		return model.RiskHigh
	case dte < 30:
		return model.RiskMediumHigh
	case dte <= 60:
		return model.RiskBalanced
	default:
		return model.RiskLow
	}
}
