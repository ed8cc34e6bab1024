package collation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestCompareStrings_NilIsByteWise(t *testing.T) {
	assert.Zero(t, CompareStrings(nil, "abc", "abc"))
	assert.Negative(t, CompareStrings(nil, "abc", "abd"))
	assert.NotZero(t, CompareStrings(nil, "ABC", "abc"))
}

func TestCaseInsensitive(t *testing.T) {
	ci := CaseInsensitive{}
	assert.Zero(t, ci.CompareStrings("FooBar", "foobar"))
	assert.NotZero(t, ci.CompareStrings("foo", "bar"))
}

func TestLocale(t *testing.T) {
	sv := NewLocale(language.Swedish)
	// In Swedish, "ö" sorts after "z".
	assert.Positive(t, sv.CompareStrings("ö", "z"))
	assert.Negative(t, CompareStrings(nil, "z", "ö"), "byte order disagrees with the locale")
}

func TestByName(t *testing.T) {
	tests := []struct {
		name            string
		locale          string
		caseInsensitive bool
		wantNil         bool
		wantErr         bool
	}{
		{"empty means byte-wise", "", false, true, false},
		{"empty with ci", "", true, false, false},
		{"simple_ci", "simple_ci", false, false, false},
		{"valid tag", "en-US", false, false, false},
		{"invalid tag", "no-such-locale-!!", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll, err := ByName(tt.locale, tt.caseInsensitive)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, coll == nil)
		})
	}
}

func TestByName_LocaleCaseInsensitive(t *testing.T) {
	coll, err := ByName("en", true)
	require.NoError(t, err)
	assert.Zero(t, coll.CompareStrings("HELLO", "hello"))
}
