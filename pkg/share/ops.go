package share

// Operation paths select which part of the document a patch targets.
const (
	PathMaintainers = "maintainers"
	PathViewers     = "viewers"
	PathAlbum       = "album"
	PathSticky      = "sticky"
	PathContents    = "contents"
)

// Operation actions. Add and delete apply to the array-valued paths, update
// to album and sticky.
const (
	ActionAdd    = "add"
	ActionDelete = "delete"
	ActionUpdate = "update"
)

// Operation is one element of an update patch.
//
// Value carries whatever the API layer decoded from the request body, so the
// typed accessors below tolerate both native Go slices and the []any/map
// shapes produced by encoding/json. A value of the wrong shape makes the
// operation a silent no-op, never an error.
type Operation struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Value  any    `json:"value"`
}

// findOp returns the first operation in ops matching path and action.
//
// Only the first match is ever honored; later duplicates for the same
// (path, action) pair are deliberately ignored.
func findOp(ops []Operation, path, action string) (Operation, bool) {
	for _, op := range ops {
		if op.Path == path && op.Action == action {
			return op, true
		}
	}
	return Operation{}, false
}

// stringsValue extracts a string slice from an operation value.
// Non-string elements are dropped; they would fail validation anyway.
func stringsValue(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// boolValue extracts a boolean from an operation value.
func boolValue(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// albumValue extracts the optional title/text fields from an album update
// value. A nil pointer for a field means "keep the existing value".
func albumValue(v any) (title, text *string, ok bool) {
	switch vv := v.(type) {
	case map[string]any:
		if s, isStr := vv["title"].(string); isStr {
			title = &s
		}
		if s, isStr := vv["text"].(string); isStr {
			text = &s
		}
		return title, text, true
	case Album:
		return &vv.Title, &vv.Text, true
	case *Album:
		if vv == nil {
			return nil, nil, false
		}
		return &vv.Title, &vv.Text, true
	default:
		return nil, nil, false
	}
}
