package ephemeris

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHorizonsClientFetch(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"result": earthVectors})
	}))
	defer srv.Close()

	client := NewHorizonsClient(HorizonsConfig{BaseURL: srv.URL, StepSize: "1d", RetryMax: 0})
	series, err := client.Fetch(context.Background(), "399", day(0), day(4))
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())

	assert.Equal(t, "399", got["COMMAND"])
	assert.Equal(t, "@sun", got["CENTER"])
	assert.Equal(t, "ECLIPTIC", got["REF_PLANE"])
	assert.Equal(t, "1d", got["STEP_SIZE"])
	assert.Equal(t, "2024-01-01", got["START_TIME"])
	assert.Equal(t, "2024-01-05", got["STOP_TIME"])
	assert.Equal(t, "json", got["format"])
}

func TestHorizonsClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewHorizonsClient(HorizonsConfig{BaseURL: srv.URL, RetryMax: 0})
	series, err := client.Fetch(context.Background(), "399", day(0), day(4))
	assert.Error(t, err)
	assert.Empty(t, series.Samples)
	assert.Equal(t, DefaultRadiusAU, series.MeanRadiusAU)
}
