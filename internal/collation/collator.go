// Package collation provides pluggable string-comparison rule sets used by
// the query matcher and the update-execution engine. A nil Collator always
// means byte-wise comparison.
package collation

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator compares strings under a specific rule set. Consumers hold a
// non-owning reference: the caller guarantees the collator outlives every
// component it is bound to, and may rebind components to a different
// collator between operations.
type Collator interface {
	// CompareStrings returns a negative value if a sorts before b, zero if
	// they are equal under the rule set, and a positive value otherwise.
	CompareStrings(a, b string) int
}

// CompareStrings compares a and b under coll, falling back to byte-wise
// comparison when coll is nil.
func CompareStrings(coll Collator, a, b string) int {
	if coll == nil {
		return strings.Compare(a, b)
	}
	return coll.CompareStrings(a, b)
}

// CaseInsensitive compares strings ignoring simple ASCII/Unicode case.
type CaseInsensitive struct{}

func (CaseInsensitive) CompareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Locale is a collator backed by the Unicode collation rules for one
// language tag.
type Locale struct {
	c *collate.Collator
}

// NewLocale builds a locale collator for the given tag.
func NewLocale(tag language.Tag, opts ...collate.Option) *Locale {
	return &Locale{c: collate.New(tag, opts...)}
}

func (l *Locale) CompareStrings(a, b string) int {
	return l.c.CompareString(a, b)
}

// ByName resolves a collator from a configuration value. An empty locale
// yields nil (byte-wise comparison); "simple_ci" yields the
// case-insensitive collator; anything else is parsed as a BCP 47 tag.
func ByName(locale string, caseInsensitive bool) (Collator, error) {
	switch locale {
	case "":
		if caseInsensitive {
			return CaseInsensitive{}, nil
		}
		return nil, nil
	case "simple_ci":
		return CaseInsensitive{}, nil
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("unknown collation locale %q: %w", locale, err)
	}

	var opts []collate.Option
	if caseInsensitive {
		opts = append(opts, collate.IgnoreCase)
	}
	return NewLocale(tag, opts...), nil
}
