package omitnil

import "reflect"

// Fields returns a copy of fields without nil values. Non-nil pointers are
// replaced by the value they point to.
func Fields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if value == nil {
			continue
		}

		v := reflect.ValueOf(value)
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				continue
			}
			out[key] = v.Elem().Interface()
			continue
		}

		out[key] = value
	}

	return out
}

// Nil returns the keys whose values Fields would drop.
func Nil(fields map[string]any) []string {
	var keys []string
	for key, value := range fields {
		if value == nil {
			keys = append(keys, key)
			continue
		}

		if v := reflect.ValueOf(value); v.Kind() == reflect.Ptr && v.IsNil() {
			keys = append(keys, key)
		}
	}

	return keys
}
