package domain

import (
	"math"
	"testing"
)

func TestToken_PeriodAccessors(t *testing.T) {
	tok := &Token{
		Volume1h: 1, Volume24h: 24, Volume7d: 168,
		TxCount1h: 2, TxCount24h: 48, TxCount7d: 336,
		PriceChange1h: 0.5, PriceChange24h: 5, PriceChange7d: 50,
	}

	if got := tok.VolumeFor(""); got != 24 {
		t.Errorf("VolumeFor default: got %v, want 24", got)
	}
	if got := tok.VolumeFor(Period1h); got != 1 {
		t.Errorf("VolumeFor 1h: got %v, want 1", got)
	}
	if got := tok.TxCountFor(Period7d); got != 336 {
		t.Errorf("TxCountFor 7d: got %v, want 336", got)
	}
	// price change falls back to the 1h field
	if got := tok.PriceChangeFor(""); got != 0.5 {
		t.Errorf("PriceChangeFor default: got %v, want 0.5", got)
	}
	if got := tok.PriceChangeFor(Period24h); got != 5 {
		t.Errorf("PriceChangeFor 24h: got %v, want 5", got)
	}
}

func TestToken_SyncAliases(t *testing.T) {
	tok := &Token{Volume24h: 150, TxCount24h: 12}
	tok.SyncAliases()

	if tok.Volume != 150 || tok.TransactionCount != 12 {
		t.Errorf("aliases not synced: volume=%v txs=%v", tok.Volume, tok.TransactionCount)
	}
}

func TestCloneTokens_Independent(t *testing.T) {
	orig := []*Token{{Address: "a", Price: 1}, nil}
	clone := CloneTokens(orig)

	if len(clone) != 1 {
		t.Fatalf("expected 1 token, got %d", len(clone))
	}
	clone[0].Price = 2
	if orig[0].Price != 1 {
		t.Error("clone shares memory with original")
	}
}

func TestPeriodAndSortBy_IsValid(t *testing.T) {
	for _, p := range []Period{Period1h, Period24h, Period7d} {
		if !p.IsValid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Period("30d").IsValid() {
		t.Error("30d should be invalid")
	}
	if SortBy("name").IsValid() {
		t.Error("name should be invalid")
	}
}

func TestToken_Finite(t *testing.T) {
	if !(&Token{Price: 1, Volume24h: math.MaxFloat64}).Finite() {
		t.Error("Expected finite record")
	}
	if (&Token{Volume24h: math.Inf(1)}).Finite() {
		t.Error("+Inf volume should not be finite")
	}
	if (&Token{PriceChange1h: math.NaN()}).Finite() {
		t.Error("NaN price change should not be finite")
	}
}

func TestAddSaturates(t *testing.T) {
	if got := AddAmounts(1.7e308, 1.7e308); got != math.MaxFloat64 {
		t.Errorf("AddAmounts: got %v, want MaxFloat64", got)
	}
	if got := AddAmounts(1.5, 2); got != 3.5 {
		t.Errorf("AddAmounts: got %v, want 3.5", got)
	}
	if got := AddCounts(math.MaxInt64, 1); got != math.MaxInt64 {
		t.Errorf("AddCounts: got %v, want MaxInt64", got)
	}
	if got := AddCounts(40, 2); got != 42 {
		t.Errorf("AddCounts: got %v, want 42", got)
	}
}
