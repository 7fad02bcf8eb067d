package text

import "github.com/pkg/errors"

// intEntry reads an integer entry from a data dict, accepting the float64
// values a JSON round trip produces.
func intEntry(data map[string]any, key string) (int, error) {
	switch value := data[key].(type) {
	case int:
		return value, nil
	case float64:
		return int(value), nil
	default:
		return 0, errors.Errorf("data dict has no integer entry for key %s", key)
	}
}

// dictEntries reads a list of nested data dicts from a data dict.
func dictEntries(data map[string]any, key string) ([]map[string]any, error) {
	switch value := data[key].(type) {
	case []map[string]any:
		return value, nil
	case []any:
		dicts := make([]map[string]any, 0, len(value))
		for _, element := range value {
			dict, ok := element.(map[string]any)
			if !ok {
				return nil, errors.Errorf("data dict entry for key %s holds a non dict element", key)
			}

			dicts = append(dicts, dict)
		}

		return dicts, nil
	default:
		return nil, errors.Errorf("data dict has no list entry for key %s", key)
	}
}
