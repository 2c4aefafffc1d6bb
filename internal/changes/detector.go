// Package changes decides which records moved meaningfully since the previous cycle.
package changes

import (
	"errors"
	"fmt"
	"math"

	"solana-token-feed/internal/domain"
)

// ErrMalformedPrior is reported when the prior snapshot cannot be trusted.
var ErrMalformedPrior = errors.New("malformed prior snapshot")

// Field names reported by Compare.
const (
	FieldPrice          = "price"
	FieldPriceChange1h  = "priceChange1h"
	FieldPriceChange24h = "priceChange24h"
	FieldVolume24h      = "volume24h"
	FieldVolume1h       = "volume1h"
	FieldMarketCap      = "marketCap"
	FieldTxCount24h     = "txCount24h"
	FieldTxCount1h      = "txCount1h"
)

// Result is the outcome of one Detect call.
type Result struct {
	Changed []*domain.Token
	// Added counts changed records with no prior counterpart.
	Added int
	// FailedOpen is set when the comparison could not be trusted and every
	// record was reported as changed. Err carries the cause.
	FailedOpen bool
	Err        error
}

// Detector compares record sets against a threshold table.
type Detector struct {
	thresholds Thresholds
}

// NewDetector creates a Detector.
func NewDetector(t Thresholds) *Detector {
	return &Detector{thresholds: t}
}

// Detect returns the records of next that are new or differ from their prior
// counterpart beyond the thresholds. A nil or empty prior marks every record new.
//
// If prior is malformed (empty address, non-finite numbers) or the comparison
// panics, Detect fails open and returns all of next.
func (d *Detector) Detect(next, prior []*domain.Token) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failOpen(next, fmt.Errorf("compare panicked: %v", r))
		}
	}()

	index := make(map[string]*domain.Token, len(prior))
	for i, p := range prior {
		if err := checkPrior(p); err != nil {
			return failOpen(next, fmt.Errorf("%w: entry %d: %v", ErrMalformedPrior, i, err))
		}
		index[p.Address] = p
	}

	for _, t := range next {
		if t == nil {
			continue
		}
		p, ok := index[t.Address]
		if !ok {
			res.Changed = append(res.Changed, t)
			res.Added++
			continue
		}
		if len(d.Compare(t, p)) > 0 {
			res.Changed = append(res.Changed, t)
		}
	}
	return res
}

// Compare returns the fields whose change between prior and next exceeds
// the thresholds. An empty result means next is unchanged.
func (d *Detector) Compare(next, prior *domain.Token) []string {
	th := d.thresholds
	var fields []string
	trip := func(field string, cur, old, relative, floor float64) {
		if math.Abs(cur-old) > math.Max(math.Abs(old)*relative, floor) {
			fields = append(fields, field)
		}
	}

	trip(FieldPrice, next.Price, prior.Price, th.PriceRelative, th.PriceEpsilon)
	trip(FieldPriceChange1h, next.PriceChange1h, prior.PriceChange1h, 0, th.PriceChangePoints)
	trip(FieldPriceChange24h, next.PriceChange24h, prior.PriceChange24h, 0, th.PriceChangePoints)
	trip(FieldVolume24h, next.Volume24h, prior.Volume24h, th.VolumeRelative, th.Volume24hFloor)
	trip(FieldVolume1h, next.Volume1h, prior.Volume1h, th.VolumeRelative, th.Volume1hFloor)
	trip(FieldMarketCap, next.MarketCap, prior.MarketCap, th.MarketCapRelative, th.MarketCapFloor)
	trip(FieldTxCount24h, float64(next.TxCount24h), float64(prior.TxCount24h), th.TxCountRelative, th.TxCountFloor)
	trip(FieldTxCount1h, float64(next.TxCount1h), float64(prior.TxCount1h), th.TxCountRelative, th.TxCountFloor)

	return fields
}

func failOpen(next []*domain.Token, err error) Result {
	res := Result{FailedOpen: true, Err: err}
	for _, t := range next {
		if t != nil {
			res.Changed = append(res.Changed, t)
		}
	}
	return res
}

func checkPrior(p *domain.Token) error {
	if p == nil {
		return errors.New("nil record")
	}
	if p.Address == "" {
		return errors.New("empty address")
	}
	for name, v := range map[string]float64{
		FieldPrice:          p.Price,
		FieldMarketCap:      p.MarketCap,
		FieldVolume24h:      p.Volume24h,
		FieldVolume1h:       p.Volume1h,
		FieldPriceChange1h:  p.PriceChange1h,
		FieldPriceChange24h: p.PriceChange24h,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite", name)
		}
	}
	return nil
}
