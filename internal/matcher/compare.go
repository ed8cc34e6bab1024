package matcher

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stratumdb/stratum/internal/collation"
)

// Canonical type classes, in BSON comparison order. Values of different
// classes compare by class alone; numbers form a single class regardless of
// their concrete width.
const (
	classNull = iota + 1
	classNumber
	classString
	classObject
	classArray
	classBinary
	classObjectID
	classBool
	classDate
	classTimestamp
	classRegex
	classOther
)

func typeClass(v any) int {
	switch v.(type) {
	case nil:
		return classNull
	case int, int32, int64, float64:
		return classNumber
	case string:
		return classString
	case bson.D, bson.M, map[string]any:
		return classObject
	case bson.A, []any:
		return classArray
	case primitive.Binary:
		return classBinary
	case primitive.ObjectID:
		return classObjectID
	case bool:
		return classBool
	case time.Time, primitive.DateTime:
		return classDate
	case primitive.Timestamp:
		return classTimestamp
	case primitive.Regex:
		return classRegex
	default:
		return classOther
	}
}

// Compare orders two decoded BSON values canonically: first by type class,
// then by value. String comparison honors coll; document field names are
// always compared byte-wise. Array comparison is order-sensitive and
// element-wise, shorter array first on a common prefix.
func Compare(a, b any, coll collation.Collator) int {
	ca, cb := typeClass(a), typeClass(b)
	if ca != cb {
		return ca - cb
	}

	switch ca {
	case classNull:
		return 0
	case classNumber:
		return compareNumbers(a, b)
	case classString:
		return collation.CompareStrings(coll, a.(string), b.(string))
	case classObject:
		return compareDocuments(asDocument(a), asDocument(b), coll)
	case classArray:
		return compareArrays(asArray(a), asArray(b), coll)
	case classBinary:
		return compareBinary(a.(primitive.Binary), b.(primitive.Binary))
	case classObjectID:
		ai, bi := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return bytes.Compare(ai[:], bi[:])
	case classBool:
		return compareBool(a.(bool), b.(bool))
	case classDate:
		return compareInt64(dateMillis(a), dateMillis(b))
	case classTimestamp:
		at, bt := a.(primitive.Timestamp), b.(primitive.Timestamp)
		if at.T != bt.T {
			return compareInt64(int64(at.T), int64(bt.T))
		}
		return compareInt64(int64(at.I), int64(bt.I))
	case classRegex:
		ar, br := a.(primitive.Regex), b.(primitive.Regex)
		if c := strings.Compare(ar.Pattern, br.Pattern); c != 0 {
			return c
		}
		return strings.Compare(ar.Options, br.Options)
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// Equal reports whether a and b are equal under canonical comparison. It is
// type-sensitive: values of different classes are never equal.
func Equal(a, b any, coll collation.Collator) bool {
	return typeClass(a) == typeClass(b) && Compare(a, b, coll) == 0
}

func compareNumbers(a, b any) int {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt {
		return compareInt64(ai, bi)
	}
	af, bf := toFloat64(a), toFloat64(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareBinary(a, b primitive.Binary) int {
	if len(a.Data) != len(b.Data) {
		return len(a.Data) - len(b.Data)
	}
	if a.Subtype != b.Subtype {
		return int(a.Subtype) - int(b.Subtype)
	}
	return bytes.Compare(a.Data, b.Data)
}

func dateMillis(v any) int64 {
	switch d := v.(type) {
	case time.Time:
		return d.UnixMilli()
	case primitive.DateTime:
		return int64(d)
	}
	return 0
}

func compareDocuments(a, b bson.D, coll collation.Collator) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := strings.Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value, coll); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

func compareArrays(a, b []any, coll collation.Collator) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := Compare(a[i], b[i], coll); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

// asDocument normalizes the document forms to bson.D; map forms are ordered
// by key.
func asDocument(v any) bson.D {
	switch d := v.(type) {
	case bson.D:
		return d
	case bson.M:
		return mapToD(map[string]any(d))
	case map[string]any:
		return mapToD(d)
	}
	return nil
}

func mapToD(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := make(bson.D, 0, len(m))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}

func asArray(v any) []any {
	switch a := v.(type) {
	case bson.A:
		return []any(a)
	case []any:
		return a
	}
	return nil
}
