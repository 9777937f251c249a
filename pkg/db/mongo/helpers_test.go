package mongo

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateOn(collection, index string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: fmt.Sprintf(`E11000 duplicate key error collection: staylock.%s index: %s dup key: { key: "R101" }`, collection, index),
		}},
	}
}

func TestIsDuplicateKeyOn(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		index string
		want  bool
	}{
		{"named index", duplicateOn("Room_locks", "payment_reference_unique"), "payment_reference_unique", true},
		{"wrapped by transaction", fmt.Errorf("transaction failed: %w", duplicateOn("Room_locks", "payment_reference_unique")), "payment_reference_unique", true},
		{"guard id is not the reference index", duplicateOn("Room_lock_guards", IDIndex), "payment_reference_unique", false},
		{"guard id", duplicateOn("Room_lock_guards", IDIndex), IDIndex, true},
		{"index name prefix", duplicateOn("Room_locks", "payment_reference_unique_v2"), "payment_reference_unique", false},
		{"other write error", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}, IDIndex, false},
		{"plain error", fmt.Errorf("connection reset"), IDIndex, false},
		{"nil", nil, IDIndex, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKeyOn(tt.err, tt.index))
		})
	}
}

func TestMillis(t *testing.T) {
	in := time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.FixedZone("EEST", 3*3600))
	out := Millis(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123000000, out.Nanosecond())
	assert.True(t, in.Truncate(time.Millisecond).Equal(out))
}
