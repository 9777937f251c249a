package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// IDIndex is the name Mongo gives the implicit _id index.
const IDIndex = "_id_"

var duplicateKeyCodes = []int{11000, 11001, 12582}

// WithTimeout wraps the context with a timeout if not already in a
// transaction. Inside a SessionContext the original context is returned with
// a no-op cancel, because wrapping it would detach the session.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

// IsDuplicateKeyOn reports whether err is a duplicate key error raised by the
// named index. The server only names the index in the error message.
func IsDuplicateKeyOn(err error, index string) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	marker := "index: " + index + " "
	for _, code := range duplicateKeyCodes {
		if se.HasErrorCodeWithMessage(code, marker) {
			return true
		}
	}
	return false
}

// Millis truncates to the precision BSON dates can store, so values written
// and read back compare equal.
func Millis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
