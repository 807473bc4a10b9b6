// Package logger writes one line per event: a level, a message and the event
// fields as JSON with credentials masked.
package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Fields map[string]any

type Level int32

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var minLevel atomic.Int32

var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"passwordhash":     {},
	"password_hash":    {},
	"newpassword":      {},
	"currentpassword":  {},
	"customerpassword": {},
	"digest":           {},
}

// ParseLevel accepts info, warn or error in any case.
func ParseLevel(raw string) (Level, error) {
	for level, name := range levelNames {
		if strings.EqualFold(strings.TrimSpace(raw), name) {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", raw)
}

// SetLevel drops every event below level.
func SetLevel(level Level) {
	minLevel.Store(int32(level))
}

func Info(message string, fields Fields) {
	write(LevelInfo, message, fields)
}

func Warn(message string, fields Fields) {
	write(LevelWarn, message, fields)
}

func Error(message string, err error, fields Fields) {
	base := Fields{}
	for k, v := range fields {
		base[k] = v
	}
	if err != nil {
		base["error"] = err.Error()
	}

	write(LevelError, message, base)
}

func write(level Level, message string, fields Fields) {
	if int32(level) < minLevel.Load() {
		return
	}
	log.Printf("%s %s %s", levelNames[level], message, fieldsJSON(fields))
}

func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func fieldsJSON(fields Fields) string {
	if fields == nil {
		fields = Fields{}
	}

	sanitized := SanitizePayload(fields)
	b, err := json.Marshal(sanitized)
	if err != nil {
		return `{}`
	}

	return string(b)
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
