package apperrors

import "strings"

const redacted = "[REDACTED]"

var sensitiveKeySubstrings = []string{
	"password",
	"token",
	"api_key",
	"secret",
	"credential",
	"auth",
	"key",
	"private",
	"ssn",
	"credit_card",
}

// SanitizeContext redacts values whose key names look sensitive, recursing
// into nested maps and lists of maps. The operation is idempotent: redacted
// values stay redacted.
func SanitizeContext(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	out := make(map[string]interface{}, len(ctx))
	for key, value := range ctx {
		if isSensitiveKey(key) {
			out[key] = redacted
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return SanitizeContext(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(v))
		for i, item := range v {
			out[i] = SanitizeContext(item)
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, substr := range sensitiveKeySubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}
