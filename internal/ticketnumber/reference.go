package ticketnumber

import (
	"strconv"
)

// ExtractReference scans the given texts in order (callers pass subject
// before body) and returns the first ticket reference found, normalized to
// the canonical zero-padded form. "TKT-15", "[TKT-0015]" and case variants
// all match. The second return is false when no reference appears anywhere.
func (a *Allocator) ExtractReference(texts ...string) (string, bool) {
	for _, text := range texts {
		m := a.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		return a.Format(n), true
	}
	return "", false
}
