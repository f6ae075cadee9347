package transfer

import "fmt"

// PageLimit caps the number of pages fetched in one run. Zero means unlimited.
type PageLimit int

// Unlimited fetches until the source reports no further pages.
const Unlimited PageLimit = 0

// NewPageLimit returns a limit of n pages. n must be positive.
func NewPageLimit(n int) (PageLimit, error) {
	if n <= 0 {
		return Unlimited, fmt.Errorf("page limit must be a positive integer (got %d)", n)
	}
	return PageLimit(n), nil
}

// ShouldContinue reports whether the 1-based page may be fetched.
func (l PageLimit) ShouldContinue(page int) bool {
	return l == Unlimited || page <= int(l)
}

// String returns "unlimited" or the page count.
func (l PageLimit) String() string {
	if l == Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", int(l))
}
