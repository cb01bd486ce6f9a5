package apiclient

import (
	"fmt"
	"net/url"
)

// Values builds query parameters from alternating key/value pairs, skipping
// zero values.
func Values(pairs ...any) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprint(pairs[i])
		switch val := pairs[i+1].(type) {
		case nil:
		case string:
			if val != "" {
				v.Set(key, val)
			}
		case int:
			if val != 0 {
				v.Set(key, fmt.Sprint(val))
			}
		case bool:
			if val {
				v.Set(key, "true")
			}
		case fmt.Stringer:
			if s := val.String(); s != "" {
				v.Set(key, s)
			}
		default:
			if s := fmt.Sprint(val); s != "" {
				v.Set(key, s)
			}
		}
	}
	return v
}
