package transfer

import "time"

// Stats are the counters accumulated by one transfer run.
type Stats struct {
	// TotalCards is the number of cards the sink accepted.
	TotalCards int

	// Duplicates is the number of cards dropped because their word was
	// already seen during the run.
	Duplicates int

	// Rejected is the number of cards the sink itself declined.
	Rejected int

	// Pages is the number of pages fetched.
	Pages int

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Processed returns the number of cards read from the source.
func (s Stats) Processed() int {
	return s.TotalCards + s.Duplicates + s.Rejected
}
