package matcher

// Path lookup with MongoDB's implicit array traversal: a leaf predicate
// matches a path if it holds for the value at that path, or for any element
// of an array at that path; intermediate arrays fan out through their
// document elements, and decimal path components address array positions.

func getField(doc any, name string) (any, bool) {
	for _, el := range asDocument(doc) {
		if el.Key == name {
			return el.Value, true
		}
	}
	return nil, false
}

func matchPath(v any, parts []string, pred func(any) bool) bool {
	if len(parts) == 0 {
		if pred(v) {
			return true
		}
		for _, item := range asArray(v) {
			if pred(item) {
				return true
			}
		}
		return false
	}

	if typeClass(v) == classObject {
		fv, ok := getField(v, parts[0])
		if !ok {
			return false
		}
		return matchPath(fv, parts[1:], pred)
	}

	if arr := asArray(v); arr != nil {
		if idx, ok := parseIndex(parts[0]); ok && idx < len(arr) {
			if matchPath(arr[idx], parts[1:], pred) {
				return true
			}
		}
		for _, item := range arr {
			if typeClass(item) == classObject && matchPath(item, parts, pred) {
				return true
			}
		}
	}
	return false
}

func pathExists(v any, parts []string) bool {
	if len(parts) == 0 {
		return true
	}

	if typeClass(v) == classObject {
		fv, ok := getField(v, parts[0])
		if !ok {
			return false
		}
		return pathExists(fv, parts[1:])
	}

	if arr := asArray(v); arr != nil {
		if idx, ok := parseIndex(parts[0]); ok && idx < len(arr) {
			if pathExists(arr[idx], parts[1:]) {
				return true
			}
		}
		for _, item := range arr {
			if typeClass(item) == classObject && pathExists(item, parts) {
				return true
			}
		}
	}
	return false
}

func parseIndex(part string) (int, bool) {
	if part == "" {
		return 0, false
	}
	n := 0
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, true
}
