package normalization

import "fmt"

// MalformedRecordError describes one raw entry that failed normalization.
// The entry is dropped; the rest of the batch proceeds.
type MalformedRecordError struct {
	Source  string
	Index   int
	Address string
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("%s entry %d: %s", e.Source, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s entry %d (%s): %s", e.Source, e.Index, e.Address, e.Reason)
}
