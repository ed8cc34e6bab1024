package update

import "strings"

// IndexData is the index-impact oracle: the set of document paths covered
// by secondary indexes. MightBeIndexed answers conservatively, the way the
// index maintenance layer needs it: positional components are ignored, and
// any overlap between the mutated path and an indexed path counts.
type IndexData struct {
	paths           []*FieldRef
	components      map[string]struct{}
	allPathsIndexed bool
}

// NewIndexData returns an empty oracle; with no registered paths nothing is
// considered indexed.
func NewIndexData() *IndexData {
	return &IndexData{components: make(map[string]struct{})}
}

// AddPath registers an indexed dotted path.
func (d *IndexData) AddPath(dotted string) {
	d.paths = append(d.paths, canonicalIndexPath(dotted))
}

// AddPathComponent registers a single field name that is indexed wherever
// it appears (multikey component indexes).
func (d *IndexData) AddPathComponent(component string) {
	d.components[component] = struct{}{}
}

// SetAllPathsIndexed makes the oracle report every path as indexed.
func (d *IndexData) SetAllPathsIndexed() {
	d.allPathsIndexed = true
}

// MightBeIndexed reports whether mutating dotted may touch an indexed path.
func (d *IndexData) MightBeIndexed(dotted string) bool {
	if d == nil {
		return false
	}
	if d.allPathsIndexed {
		return true
	}
	path := canonicalIndexPath(dotted)
	for _, indexed := range d.paths {
		if indexed.Equals(path) || indexed.IsPrefixOf(path) || path.IsPrefixOf(indexed) {
			return true
		}
	}
	for _, part := range path.Parts() {
		if _, ok := d.components[part]; ok {
			return true
		}
	}
	return false
}

// canonicalIndexPath strips positional (all-digit) components, so "a.0.b"
// and "a.b" describe the same indexed field.
func canonicalIndexPath(dotted string) *FieldRef {
	if dotted == "" {
		return &FieldRef{}
	}
	var parts []string
	for _, part := range strings.Split(dotted, ".") {
		if isAllDigits(part) {
			continue
		}
		parts = append(parts, part)
	}
	return fieldRefOf(parts)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
