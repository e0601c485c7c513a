package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 2*TraceIDLength)

	// The parent context is untouched.
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceID(t *testing.T) {
	id := generateTraceID()
	require.Len(t, id, 2*TraceIDLength)
	_, err := hex.DecodeString(id)
	require.NoError(t, err)

	// Probabilistic uniqueness check.
	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		assert.False(t, seen[id], "trace IDs should not repeat")
		seen[id] = true
	}
}

// readTraceID mirrors generateTraceID with an injectable entropy source;
// rand.Reader itself cannot be swapped out.
func readTraceID(reader io.Reader) string {
	b := make([]byte, TraceIDLength)
	n, err := reader.Read(b)
	if err != nil || n != TraceIDLength {
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestTraceIDFallbackOnEntropyFailure(t *testing.T) {
	// A dead entropy source and a short read both fall back to the
	// time-derived ID, which still has the full length.
	for _, reader := range []io.Reader{
		failingReader{},
		io.LimitReader(rand.Reader, TraceIDLength/2),
	} {
		id := readTraceID(reader)
		assert.Len(t, id, 2*TraceIDLength)
		_, err := hex.DecodeString(id)
		assert.NoError(t, err)
	}
}

func TestFallbackTraceIDUniqueness(t *testing.T) {
	const iterations = 100
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateFallbackTraceID()
		require.Len(t, id, 2*TraceIDLength)

		// The fallback is time-derived; let the clock tick between draws.
		time.Sleep(time.Millisecond)
		assert.False(t, seen[id], "fallback trace IDs should not repeat")
		seen[id] = true
	}
}
