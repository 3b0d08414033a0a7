package logger

import (
	"log/slog"
	"strings"
)

// Auth schemes whose credentials travel as "scheme:user:password" or
// "user:password". Values carrying one of these prefixes keep the scheme and
// user, the password is masked.
var sensitiveSchemePrefixes = []string{
	"digest:",
	"sasl:",
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"credential",
	"auth_data",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskCredential masks the password part of "user:password".
func maskCredential(cred string) string {
	user, _, found := strings.Cut(cred, ":")
	if !found {
		return "***"
	}
	return user + ":***"
}

// RedactString masks the secret part of an auth string.
// "digest:alice:s3cret" becomes "digest:alice:***". Values without a known
// scheme prefix are returned unchanged.
func RedactString(value string) string {
	for _, prefix := range sensitiveSchemePrefixes {
		if strings.HasPrefix(value, prefix) {
			return prefix + maskCredential(value[len(prefix):])
		}
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value carries an auth scheme prefix.
func IsSensitiveValue(value string) bool {
	for _, prefix := range sensitiveSchemePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
