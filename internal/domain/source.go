package domain

// Source tags identify which upstream produced a record.
const (
	SourceDexScreener   = "DexScreener"
	SourceGeckoTerminal = "GeckoTerminal"
)

// UpdateSource identifies what triggered a refresh cycle.
type UpdateSource string

const (
	UpdateSourceScheduler UpdateSource = "scheduler"
	UpdateSourceManual    UpdateSource = "manual"
)

// String returns the string representation of UpdateSource.
func (s UpdateSource) String() string {
	return string(s)
}

// IsValid checks if the update source is a valid value.
func (s UpdateSource) IsValid() bool {
	return s == UpdateSourceScheduler || s == UpdateSourceManual
}
