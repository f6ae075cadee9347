package transfer

import (
	"errors"
	"fmt"
)

// Stage names the part of a run that failed.
type Stage string

const (
	// StageValidation is a malformed deck identifier.
	StageValidation Stage = "validation"

	// StageFetch is a failure of the record source.
	StageFetch Stage = "fetch"

	// StageSinkOpen is a sink that could not be set up, such as an
	// unreachable database.
	StageSinkOpen Stage = "sink-open"

	// StageSinkAdd is a sink failing to accept a card.
	StageSinkAdd Stage = "sink-add"

	// StageSinkFinalize is a sink failing to write its output.
	StageSinkFinalize Stage = "sink-finalize"
)

// ErrMissingCursor is returned when a page claims more pages but carries no
// continuation cursor.
var ErrMissingCursor = errors.New("page reports more pages but no continuation cursor")

// TransferError is the terminal error of a run.
type TransferError struct {
	Stage Stage
	// Page is the 1-based page being processed, 0 outside the page loop.
	Page int
	Err  error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s failed on page %d: %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of a TransferError in err's chain, or "".
func StageOf(err error) Stage {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Stage
	}
	return ""
}
