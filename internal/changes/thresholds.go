package changes

// Thresholds is the per-field change table. Each numeric comparison trips
// when |new - prior| exceeds max(|prior| * Relative, Floor).
type Thresholds struct {
	PriceRelative float64
	PriceEpsilon  float64
	// PriceChangePoints is an absolute delta in percentage points.
	PriceChangePoints float64

	VolumeRelative float64
	Volume24hFloor float64
	Volume1hFloor  float64

	MarketCapRelative float64
	MarketCapFloor    float64

	TxCountRelative float64
	TxCountFloor    float64
}

// DefaultThresholds returns the 0.1% table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceRelative:     0.001,
		PriceEpsilon:      1e-12,
		PriceChangePoints: 0.1,
		VolumeRelative:    0.001,
		Volume24hFloor:    1,
		Volume1hFloor:     0.1,
		MarketCapRelative: 0.001,
		MarketCapFloor:    1,
		TxCountRelative:   0.001,
		TxCountFloor:      0.1,
	}
}
