package output

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// ApplyFilter runs a jq expression over the data document and returns the
// filtered result. A single result is returned as-is; multiple results
// collapse into a slice.
func ApplyFilter(data any, expr string) (any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, ErrUsage(fmt.Sprintf("Invalid --jq expression: %v", err))
	}

	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := query.Run(normalized)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if runErr, isErr := v.(error); isErr {
			return nil, ErrUsage(fmt.Sprintf("--jq: %v", runErr))
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// normalize converts arbitrary values into the plain JSON shapes gojq
// understands (map[string]any, []any, primitives).
func normalize(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal for --jq: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize for --jq: %w", err)
	}
	return out, nil
}
