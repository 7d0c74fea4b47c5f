package common

import (
	"context"
)

type dryrunContextKey string
type keepGoingContextKey string

const dryrunContextKeyVal = dryrunContextKey("dryrun")
const keepGoingContextKeyVal = keepGoingContextKey("keepgoing")

// Dryrun returns true if programs should only be hoisted, not executed
func Dryrun(ctx context.Context) bool {
	val := ctx.Value(dryrunContextKeyVal)
	if val != nil {
		if dryrun, ok := val.(bool); ok {
			return dryrun
		}
	}
	return false
}

// WithDryrun adds a value to the context for dryrun
func WithDryrun(ctx context.Context, dryrun bool) context.Context {
	return context.WithValue(ctx, dryrunContextKeyVal, dryrun)
}

// KeepGoing returns true if a failed program should not cancel the others
func KeepGoing(ctx context.Context) bool {
	val := ctx.Value(keepGoingContextKeyVal)
	if val != nil {
		if keepGoing, ok := val.(bool); ok {
			return keepGoing
		}
	}
	return false
}

// WithKeepGoing adds a value to the context for keep-going
func WithKeepGoing(ctx context.Context, keepGoing bool) context.Context {
	return context.WithValue(ctx, keepGoingContextKeyVal, keepGoing)
}
