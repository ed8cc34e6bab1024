package matcher

import "strings"

// queryOperators are the comparison, logical and leaf operator keywords the
// matcher understands. Field names outside this set are plain fields even
// when they start with '$'.
var queryOperators = map[string]struct{}{
	"$eq": {}, "$ne": {}, "$gt": {}, "$gte": {}, "$lt": {}, "$lte": {},
	"$in": {}, "$nin": {}, "$exists": {}, "$regex": {}, "$options": {},
	"$not": {}, "$and": {}, "$or": {}, "$nor": {}, "$size": {},
	"$all": {}, "$elemMatch": {}, "$mod": {}, "$type": {},
}

// disallowedOperators are match extensions rejected in update contexts.
var disallowedOperators = map[string]struct{}{
	"$where": {}, "$text": {}, "$expr": {}, "$jsonSchema": {},
}

// IsQueryOperator reports whether name is a query operator keyword. It is
// the test used to decide whether a condition document expresses a
// structural match on fields or an operator expression on the value itself.
func IsQueryOperator(name string) bool {
	if !strings.HasPrefix(name, "$") {
		return false
	}
	if _, ok := queryOperators[name]; ok {
		return true
	}
	_, ok := disallowedOperators[name]
	return ok
}
