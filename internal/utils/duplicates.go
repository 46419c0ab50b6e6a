package utils

// Deduper remembers values it has seen so that only the first occurrence
// of each is kept. Comparison is exact; callers normalize beforehand.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper creates an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// ShouldInclude reports whether value is new, and records it.
func (d *Deduper) ShouldInclude(value string) bool {
	if _, ok := d.seen[value]; ok {
		return false
	}
	d.seen[value] = struct{}{}
	return true
}
