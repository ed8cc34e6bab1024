package update

import "strings"

// FieldRef is a parsed dotted field path.
type FieldRef struct {
	parts []string
}

// NewFieldRef parses a dotted path; the empty string yields an empty ref.
func NewFieldRef(dotted string) *FieldRef {
	if dotted == "" {
		return &FieldRef{}
	}
	return &FieldRef{parts: strings.Split(dotted, ".")}
}

func fieldRefOf(parts []string) *FieldRef {
	return &FieldRef{parts: parts}
}

// Empty reports whether the ref has no components.
func (f *FieldRef) Empty() bool {
	return f == nil || len(f.parts) == 0
}

// NumParts returns the number of path components.
func (f *FieldRef) NumParts() int {
	if f == nil {
		return 0
	}
	return len(f.parts)
}

// Part returns the i-th path component.
func (f *FieldRef) Part(i int) string {
	return f.parts[i]
}

// Parts returns the path components; callers must not modify the slice.
func (f *FieldRef) Parts() []string {
	if f == nil {
		return nil
	}
	return f.parts
}

// Dotted returns the path in dotted form.
func (f *FieldRef) Dotted() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.parts, ".")
}

// IsPrefixOf reports whether f is a strict prefix of other.
func (f *FieldRef) IsPrefixOf(other *FieldRef) bool {
	if f.Empty() || other == nil || len(f.parts) >= len(other.parts) {
		return false
	}
	for i, p := range f.parts {
		if other.parts[i] != p {
			return false
		}
	}
	return true
}

// Equals reports component-wise equality.
func (f *FieldRef) Equals(other *FieldRef) bool {
	if f.NumParts() != other.NumParts() {
		return false
	}
	for i, p := range f.Parts() {
		if other.parts[i] != p {
			return false
		}
	}
	return true
}

// FieldRefSet is a set of field paths, used for the immutable paths an
// update is forbidden to touch.
type FieldRefSet struct {
	refs []*FieldRef
}

// NewFieldRefSet builds a set from dotted paths.
func NewFieldRefSet(dotted ...string) *FieldRefSet {
	s := &FieldRefSet{}
	for _, d := range dotted {
		s.refs = append(s.refs, NewFieldRef(d))
	}
	return s
}

// Empty reports whether the set has no members.
func (s *FieldRefSet) Empty() bool {
	return s == nil || len(s.refs) == 0
}

// Conflicts reports whether path equals, contains or is contained by any
// member of the set.
func (s *FieldRefSet) Conflicts(path *FieldRef) bool {
	if s == nil {
		return false
	}
	for _, ref := range s.refs {
		if ref.Equals(path) || ref.IsPrefixOf(path) || path.IsPrefixOf(ref) {
			return true
		}
	}
	return false
}
