package report

import (
	"regexp"
	"strings"
)

// Redacted replaces values that look like secrets.
const Redacted = "[REDACTED]"

var (
	sensitiveKeyPattern = regexp.MustCompile(`(?i)(password|passwd|secret|token|api[_-]?key|credential|private[_-]?key|authorization|(^|[_.-])auth($|[_.-]))`)
	hexPattern          = regexp.MustCompile(`^[a-fA-F0-9]{32,}$`)
	base64Pattern       = regexp.MustCompile(`^[A-Za-z0-9+/=_-]{40,}$`)
)

// IsSensitiveKey reports whether a detail key names a credential.
func IsSensitiveKey(key string) bool {
	return sensitiveKeyPattern.MatchString(key)
}

// IsSecretValue reports whether a string value looks like a key, hash or token.
func IsSecretValue(v string) bool {
	return strings.HasPrefix(v, "sk-") || hexPattern.MatchString(v) || base64Pattern.MatchString(v)
}

// SanitizeDetails returns a deep copy of details with secrets redacted.
func SanitizeDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		if IsSensitiveKey(k) {
			out[k] = Redacted
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case string:
		if IsSecretValue(typed) {
			return Redacted
		}
		return typed
	case map[string]interface{}:
		return SanitizeDetails(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = sanitizeValue(item)
		}
		return out
	case []string:
		out := make([]string, len(typed))
		for i, item := range typed {
			if IsSecretValue(item) {
				item = Redacted
			}
			out[i] = item
		}
		return out
	default:
		return v
	}
}
