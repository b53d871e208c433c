package pinata_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/valuesdao/internal/app/clients/pinata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))

		var body struct {
			Content  pinata.ValuesDocument `json:"pinataContent"`
			Metadata struct {
				Name string `json:"name"`
			} `json:"pinataMetadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"honesty", "grit"}, body.Content.Values)
		assert.Equal(t, int64(3), body.Content.FID)
		assert.Equal(t, "ValuesDAO values for fid 3", body.Metadata.Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IpfsHash":"bafybatch","PinSize":120,"Timestamp":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	cid, err := pinata.New("jwt", srv.URL, 5*time.Second).PinValues(t.Context(), 3, []string{"honesty", "grit"})
	require.NoError(t, err)
	assert.Equal(t, "bafybatch", cid)
}

func TestPinValues_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"reason":"NO_SCOPES_FOUND"}}`))
	}))
	defer srv.Close()

	c := pinata.New("jwt", srv.URL, 5*time.Second)

	_, err := c.PinValues(t.Context(), 3, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = c.PinValues(t.Context(), 3, nil)
	assert.Error(t, err)
}
