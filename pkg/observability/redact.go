package observability

import "strings"

// RedactedValue replaces the value of sensitive fields in log output.
const RedactedValue = "[REDACTED]"

var sensitiveKeyParts = []string{
	"password",
	"api_key",
	"apikey",
	"x-api-key",
	"token",
	"authorization",
	"bearer",
	"secret",
	"credential",
	"private_key",
	"cookie",
	"session",
}

// IsSensitiveKey reports whether a field key names a secret that must never
// reach a log sink, such as the client credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// Redact returns fields with sensitive values replaced by RedactedValue.
// The input slice is not modified.
func Redact(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, field := range fields {
		if IsSensitiveKey(field.Key) {
			field.Value = RedactedValue
		}
		out[i] = field
	}
	return out
}
