package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestFullKeyIsLabelOrderIndependent(t *testing.T) {
	a := fullKey("x", map[string]string{"b": "2", "a": "1"})
	b := fullKey("x", map[string]string{"a": "1", "b": "2"})
	require.Equal(t, "x{a=1,b=2}", a)
	require.Equal(t, a, b)
	require.Equal(t, "x", fullKey("x", nil))
}

func TestRegistryHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry()
	ctx := context.Background()
	reg.Inc(ctx, PromptsComposed, map[string]string{"kind": "image"}, 1)
	reg.Inc(ctx, PromptsComposed, map[string]string{"kind": "image"}, 2)
	reg.Inc(ctx, StyleFallbacks, nil, 1)
	require.EqualValues(t, 3, reg.Value(PromptsComposed, map[string]string{"kind": "image"}))

	router := gin.New()
	router.GET("/metrics", reg.HandleText)
	router.GET("/metrics.json", reg.HandleJSON)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "prompts_composed_total{kind=image} 3\nstyle_fallbacks_total 1\n", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics.json", nil))
	var payload map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.EqualValues(t, 1, payload[StyleFallbacks])
}

func TestNilRegistryIsNoop(t *testing.T) {
	var reg *Registry
	reg.Inc(context.Background(), HTTPRequests, nil, 1)
	require.Zero(t, reg.Value(HTTPRequests, nil))
}
