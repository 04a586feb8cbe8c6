package options

import (
	"testing"
	"time"

	"OptionPilot/internal/model"
)

func chainWithStrikes(strikes ...float64) []model.OptionContract {
	chain := make([]model.OptionContract, len(strikes))
	for i, s := range strikes {
		chain[i] = model.OptionContract{ContractSymbol: "TEST", Strike: s, Ask: s / 100}
	}
	return chain
}

func TestSelectStrikes_Call(t *testing.T) {
	chain := chainWithStrikes(90, 95, 100, 105, 110)
	sel, err := SelectStrikes(chain, 100, model.DirectionCall)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.ATM.Strike != 100 {
		t.Errorf("ATM: expected 100, got %.0f", sel.ATM.Strike)
	}
	if sel.ITM.Strike != 95 {
		t.Errorf("ITM: expected 95, got %.0f", sel.ITM.Strike)
	}
	if sel.OTM.Strike != 105 {
		t.Errorf("OTM: expected 105, got %.0f", sel.OTM.Strike)
	}
	if sel.Direction != model.DirectionCall {
		t.Errorf("selection should carry its direction, got %q", sel.Direction)
	}
}

func TestSelectStrikes_Put(t *testing.T) {
	chain := chainWithStrikes(90, 95, 100, 105, 110)
	sel, err := SelectStrikes(chain, 100, model.DirectionPut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.ITM.Strike != 105 {
		t.Errorf("put ITM: expected 105, got %.0f", sel.ITM.Strike)
	}
	if sel.OTM.Strike != 95 {
		t.Errorf("put OTM: expected 95, got %.0f", sel.OTM.Strike)
	}
}

func TestSelectStrikes_FallbackToATM(t *testing.T) {
	// Every strike is above the price: a call has no ITM candidate.
	chain := chainWithStrikes(105, 110, 115)
	sel, err := SelectStrikes(chain, 100, model.DirectionCall)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.ITM.Strike != 105 {
		t.Errorf("missing ITM side should fall back to ATM (105), got %.0f", sel.ITM.Strike)
	}
	if sel.OTM.Strike != 105 {
		t.Errorf("OTM: expected 105, got %.0f", sel.OTM.Strike)
	}
}

func TestSelectStrikes_EmptyChain(t *testing.T) {
	if _, err := SelectStrikes(nil, 100, model.DirectionCall); err != ErrEmptyChain {
		t.Errorf("expected ErrEmptyChain, got %v", err)
	}
}

func TestFindByAskRange(t *testing.T) {
	chain := []model.OptionContract{
		{ContractSymbol: "A", Ask: 0.50},
		{ContractSymbol: "B", Ask: 1.20},
		{ContractSymbol: "C", Ask: 1.80},
	}
	c, ok := FindByAskRange(chain, 1.0, 2.0)
	if !ok || c.ContractSymbol != "B" {
		t.Errorf("expected first in-range contract B, got %+v ok=%v", c, ok)
	}
	if _, ok := FindByAskRange(chain, 3.0, 4.0); ok {
		t.Error("expected no match above the chain's asks")
	}
}

func TestChooseExpiry(t *testing.T) {
	today := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return today.AddDate(0, 0, d) }

	// 44 DTE is the closest to 45 inside [30, 60].
	expiries := []time.Time{day(7), day(21), day(44), day(59), day(90)}
	if got := ChooseExpiry(expiries, today); got != 2 {
		t.Errorf("expected index 2 (44 DTE), got %d", got)
	}

	// Nothing in [30, 60]: default to the first expiry.
	expiries = []time.Time{day(3), day(10), day(90)}
	if got := ChooseExpiry(expiries, today); got != 0 {
		t.Errorf("expected fallback to index 0, got %d", got)
	}

	if got := ChooseExpiry(nil, today); got != -1 {
		t.Errorf("expected -1 for empty list, got %d", got)
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		dte  int
		want model.RiskBucket
	}{
		{2, model.RiskHigh},
		{6, model.RiskHigh},
		{7, model.RiskMediumHigh},
		{29, model.RiskMediumHigh},
		{30, model.RiskBalanced},
		{60, model.RiskBalanced},
		{61, model.RiskLow},
	}
	for _, tt := range tests {
		if got := Bucket(tt.dte); got != tt.want {
			t.Errorf("dte=%d: expected %s, got %s", tt.dte, tt.want, got)
		}
	}
}
