package changes

import (
	"errors"
	"math"
	"testing"

	"solana-token-feed/internal/domain"
)

func base(addr string) *domain.Token {
	return &domain.Token{
		Address:        addr,
		Name:           "Token",
		Ticker:         "TKN",
		Price:          1.0,
		MarketCap:      10000,
		Liquidity:      500,
		Volume1h:       10,
		Volume24h:      1000,
		TxCount1h:      10,
		TxCount24h:     100,
		PriceChange1h:  1,
		PriceChange24h: 5,
	}
}

func TestDetect_PriceThreshold(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	prior := []*domain.Token{base("X")}

	moved := base("X")
	moved.Price = 1.002
	res := d.Detect([]*domain.Token{moved}, prior)
	if len(res.Changed) != 1 {
		t.Fatalf("Expected 0.2%% price move to be flagged, got %d changed", len(res.Changed))
	}

	still := base("X")
	still.Price = 1.0005
	res = d.Detect([]*domain.Token{still}, prior)
	if len(res.Changed) != 0 {
		t.Errorf("Expected 0.05%% price move to be ignored, got %d changed", len(res.Changed))
	}
}

func TestDetect_NewAddressAlwaysChanged(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	prior := []*domain.Token{base("X")}

	fresh := base("Y")
	res := d.Detect([]*domain.Token{base("X"), fresh}, prior)

	if len(res.Changed) != 1 || res.Changed[0].Address != "Y" {
		t.Fatalf("Expected only Y flagged, got %+v", res.Changed)
	}
	if res.Added != 1 {
		t.Errorf("Expected 1 added, got %d", res.Added)
	}
}

func TestDetect_NoPrior(t *testing.T) {
	d := NewDetector(DefaultThresholds())

	res := d.Detect([]*domain.Token{base("X"), base("Y")}, nil)

	if len(res.Changed) != 2 || res.Added != 2 {
		t.Errorf("Expected all records new, got changed=%d added=%d", len(res.Changed), res.Added)
	}
	if res.FailedOpen {
		t.Error("Absent prior is not a failure")
	}
}

func TestCompare_Fields(t *testing.T) {
	d := NewDetector(DefaultThresholds())

	tests := []struct {
		name string
		mod  func(*domain.Token)
		want string
	}{
		{"price change 1h", func(t *domain.Token) { t.PriceChange1h += 0.11 }, FieldPriceChange1h},
		{"price change 24h", func(t *domain.Token) { t.PriceChange24h -= 0.2 }, FieldPriceChange24h},
		{"volume 24h", func(t *domain.Token) { t.Volume24h += 1.5 }, FieldVolume24h},
		{"volume 1h", func(t *domain.Token) { t.Volume1h += 0.2 }, FieldVolume1h},
		{"market cap", func(t *domain.Token) { t.MarketCap += 11 }, FieldMarketCap},
		{"tx 24h", func(t *domain.Token) { t.TxCount24h++ }, FieldTxCount24h},
		{"tx 1h", func(t *domain.Token) { t.TxCount1h-- }, FieldTxCount1h},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base("X")
			tt.mod(next)
			got := d.Compare(next, base("X"))
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Expected [%s], got %v", tt.want, got)
			}
		})
	}
}

func TestCompare_BelowThresholds(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	next := base("X")
	next.PriceChange1h += 0.05
	next.Volume24h += 0.9
	next.Volume1h += 0.009
	next.MarketCap += 9
	next.Liquidity = 1 // not compared
	next.Name = "Renamed"

	if got := d.Compare(next, base("X")); len(got) != 0 {
		t.Errorf("Expected no tripped fields, got %v", got)
	}
}

func TestCompare_ZeroPriorUsesFloors(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	prior := &domain.Token{Address: "X"}

	next := &domain.Token{Address: "X", Volume24h: 0.5, TxCount1h: 1}
	got := d.Compare(next, prior)
	if len(got) != 1 || got[0] != FieldTxCount1h {
		t.Errorf("Expected only txCount1h, got %v", got)
	}

	next = &domain.Token{Address: "X", Price: 1e-9}
	if got := d.Compare(next, prior); len(got) != 1 || got[0] != FieldPrice {
		t.Errorf("Expected price from zero to trip, got %v", got)
	}
}

func TestDetect_FailsOpenOnMalformedPrior(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	bad := base("Z")
	bad.Volume24h = math.NaN()
	prior := []*domain.Token{base("X"), bad}

	res := d.Detect([]*domain.Token{base("X"), base("Y")}, prior)

	if !res.FailedOpen {
		t.Fatal("Expected fail-open")
	}
	if len(res.Changed) != 2 {
		t.Errorf("Expected full set reported, got %d", len(res.Changed))
	}
	if !errors.Is(res.Err, ErrMalformedPrior) {
		t.Errorf("Expected ErrMalformedPrior, got %v", res.Err)
	}

	res = d.Detect([]*domain.Token{base("X")}, []*domain.Token{{Address: ""}})
	if !res.FailedOpen || len(res.Changed) != 1 {
		t.Errorf("Expected fail-open on empty prior address, got %+v", res)
	}
}

func TestDetect_FailsOpenOnNilPrior(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	res := d.Detect([]*domain.Token{nil, base("X")}, []*domain.Token{nil})

	if !res.FailedOpen || len(res.Changed) != 1 {
		t.Errorf("Expected fail-open with 1 record, got %+v", res)
	}
}
