package datacontext

// Path addresses a leaf in the context tree. Segments are strings for map
// keys or ints for slice indices.
type Path = []interface{}

// SetPath writes a value at the given path, creating intermediate maps for
// string segments. Writes against a structurally incompatible tree are
// silently skipped so a partial refresh never corrupts the context.
func SetPath(ctx Context, path Path, value interface{}) {
	if len(path) == 0 {
		return
	}

	var current interface{} = ctx

	for _, seg := range path[:len(path)-1] {
		switch key := seg.(type) {
		case string:
			node, ok := current.(map[string]interface{})
			if !ok {
				return
			}

			existing, present := node[key]
			if !present {
				existing = make(map[string]interface{})
				node[key] = existing
			}

			current = existing
		case int:
			list, ok := current.([]interface{})
			if !ok || key < 0 || key >= len(list) {
				return
			}

			current = list[key]
		default:
			return
		}
	}

	switch key := path[len(path)-1].(type) {
	case string:
		if node, ok := current.(map[string]interface{}); ok {
			node[key] = value
		}
	case int:
		if list, ok := current.([]interface{}); ok && key >= 0 && key < len(list) {
			list[key] = value
		}
	}
}

// GetPath reads the value at a path, returning false when any segment is
// missing or mistyped.
func GetPath(ctx Context, path Path) (interface{}, bool) {
	var current interface{} = ctx

	for _, seg := range path {
		switch key := seg.(type) {
		case string:
			node, ok := current.(map[string]interface{})
			if !ok {
				return nil, false
			}

			current, ok = node[key]
			if !ok {
				return nil, false
			}
		case int:
			list, ok := current.([]interface{})
			if !ok || key < 0 || key >= len(list) {
				return nil, false
			}

			current = list[key]
		default:
			return nil, false
		}
	}

	return current, true
}
