package logging

import (
	"context"

	"go.viam.com/utils"
)

type contextKey int

const (
	debugTagKey contextKey = iota
	fieldsKey
)

// EnableDebugMode returns a context under which the C* methods log at every level, tagging each
// entry with debugTag. An empty tag is replaced by a random one.
func EnableDebugMode(ctx context.Context, debugTag string) context.Context {
	if debugTag == "" {
		debugTag = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugTagKey, debugTag)
}

// IsDebugMode reports whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugTag(ctx) != ""
}

// DebugTag returns the tag given to EnableDebugMode, or "".
func DebugTag(ctx context.Context) string {
	tag, _ := ctx.Value(debugTagKey).(string)
	return tag
}

// WithFields returns a context whose C* log entries carry keysAndValues after any fields already
// attached to ctx. keysAndValues must alternate keys and values.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	prev := contextFields(ctx)
	merged := make([]interface{}, 0, len(prev)+len(keysAndValues))
	merged = append(merged, prev...)
	merged = append(merged, keysAndValues...)
	return context.WithValue(ctx, fieldsKey, merged)
}

func contextFields(ctx context.Context) []interface{} {
	fields, _ := ctx.Value(fieldsKey).([]interface{})
	return fields
}
