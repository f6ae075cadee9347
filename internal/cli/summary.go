package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/transfer"
)

// printSummary writes the end-of-run report. It goes to stderr so that JSON
// on stdout is left untouched.
func printSummary(w io.Writer, dest output.Destination, stats transfer.Stats) {
	fmt.Fprintf(w, "Export complete (%s)\n", dest)
	fmt.Fprintf(w, "  total_cards: %d\n", stats.TotalCards)
	fmt.Fprintf(w, "  duplicates:  %d\n", stats.Duplicates)
	if stats.Rejected > 0 {
		fmt.Fprintf(w, "  rejected:    %d\n", stats.Rejected)
	}
	fmt.Fprintf(w, "  pages:       %d\n", stats.Pages)
	fmt.Fprintf(w, "  elapsed:     %s\n", stats.Elapsed.Round(time.Millisecond))
}
