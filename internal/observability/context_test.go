package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")

		result := RequestIDFromContext(ctx)
		assert.Equal(t, "req-123", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RequestIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestRunIDContext(t *testing.T) {
	t.Run("stores and retrieves run ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRunID(ctx, "run-456")

		result := RunIDFromContext(ctx)
		assert.Equal(t, "run-456", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RunIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestDataSourceContext(t *testing.T) {
	t.Run("stores and retrieves data source", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithDataSource(ctx, "data/metadata.csv")

		result := DataSourceFromContext(ctx)
		assert.Equal(t, "data/metadata.csv", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := DataSourceFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestRunScope(t *testing.T) {
	t.Run("round-trips all fields", func(t *testing.T) {
		rs := RunScope{
			RequestID: "req-1",
			RunID:     "run-1",
			Source:    "data/small_metadata.csv",
		}

		ctx := WithRunScope(context.Background(), rs)
		result := RunScopeFromContext(ctx)

		assert.Equal(t, rs, result)
	})

	t.Run("skips empty fields", func(t *testing.T) {
		rs := RunScope{RunID: "run-only"}

		ctx := WithRunScope(context.Background(), rs)
		result := RunScopeFromContext(ctx)

		assert.Equal(t, "", result.RequestID)
		assert.Equal(t, "run-only", result.RunID)
		assert.Equal(t, "", result.Source)
	})

	t.Run("empty scope yields empty scope", func(t *testing.T) {
		ctx := WithRunScope(context.Background(), RunScope{})
		result := RunScopeFromContext(ctx)

		assert.Equal(t, RunScope{}, result)
	})
}
