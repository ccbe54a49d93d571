package mycontext

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceContext(t *testing.T) {
	t.Run("No trace attached", func(t *testing.T) {
		assert.Equal(t, "", TraceFrom(context.Background()))
	})

	t.Run("Trace attached", func(t *testing.T) {
		c := WithTrace(context.Background(), "abc")
		assert.Equal(t, "abc", TraceFrom(c))
	})

	t.Run("Trace from cloud header", func(t *testing.T) {
		t.Setenv("GOOGLE_CLOUD_PROJECT", "shop")
		r, err := http.NewRequest(http.MethodGet, "/Cart", nil)
		require.NoError(t, err)
		r.Header.Set("X-Cloud-Trace-Context", "105445aa7843bc8bf206b12000100000/1;o=1")

		c := ContextFromHTTPRequest(r)
		assert.Equal(t, "projects/shop/traces/105445aa7843bc8bf206b12000100000", TraceFrom(c))
	})
}
