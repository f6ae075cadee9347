package transfer

// Deduplicator decides whether a word has already been exported in this run.
type Deduplicator interface {
	// Remember returns true if word was seen before. Otherwise it records
	// word and returns false.
	Remember(word string) bool
}

// DuplicateHandler is the set of words seen during one transfer run.
// Comparison is exact: no trimming or case folding.
type DuplicateHandler struct {
	seen map[string]struct{}
}

// NewDuplicateHandler returns an empty handler.
func NewDuplicateHandler() *DuplicateHandler {
	return &DuplicateHandler{seen: make(map[string]struct{})}
}

// Remember implements Deduplicator.
func (h *DuplicateHandler) Remember(word string) bool {
	if _, ok := h.seen[word]; ok {
		return true
	}
	h.seen[word] = struct{}{}
	return false
}
