// Package attrs reads values back out of the alternating key/value lists
// the services hand to slog and the audit publisher.
package attrs

// ExtractString returns the string paired with key in an alternating
// [key1, value1, key2, value2, ...] list. The audit publisher uses it to
// lift subject and resource identifiers out of log attributes. Missing
// keys and non-string values yield "".
func ExtractString(kv []any, key string) string {
	for i := 0; i < len(kv)-1; i += 2 {
		name, ok := kv[i].(string)
		if !ok || name != key {
			continue
		}
		if value, ok := kv[i+1].(string); ok {
			return value
		}
	}
	return ""
}
