package randomorg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, handler func(method string, params json.RawMessage) (interface{}, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     string          `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("", "http://x", time.Second).Configured())
	assert.True(t, NewClient("key", "http://x", time.Second).Configured())
}

func TestGenerateSignedInt(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		assert.Equal(t, "generateSignedIntegers", method)

		var p signedIntegersParams
		require.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, "test-key", p.APIKey)
		assert.Equal(t, 1, p.N)
		assert.Equal(t, int64(0), p.Min)
		assert.Equal(t, int64(99), p.Max)
		assert.Equal(t, "Friday Raffle", p.UserData)

		return signedIntegersResult{
			Random:    json.RawMessage(`{"data":[42],"userData":"Friday Raffle"}`),
			Signature: "sig-abc",
		}, nil
	})
	defer srv.Close()

	client := NewClient("test-key", srv.URL, time.Second)
	random, err := client.GenerateSignedInt(context.Background(), 100, "Friday Raffle")
	require.NoError(t, err)

	assert.Equal(t, int64(42), random.Value)
	assert.Equal(t, "sig-abc", random.Signature)
	assert.JSONEq(t, `{"data":[42],"userData":"Friday Raffle"}`, string(random.Payload))
}

func TestGenerateSignedInt_NotConfigured(t *testing.T) {
	client := NewClient("", "http://unused", time.Second)
	_, err := client.GenerateSignedInt(context.Background(), 100, "tag")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateSignedInt_ProviderError(t *testing.T) {
	srv := rpcServer(t, func(string, json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: 402, Message: "quota exceeded"}
	})
	defer srv.Close()

	client := NewClient("test-key", srv.URL, time.Second)
	_, err := client.GenerateSignedInt(context.Background(), 100, "tag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestVerifySignature(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		assert.Equal(t, "verifySignature", method)
		return verifyResult{Authenticity: true}, nil
	})
	defer srv.Close()

	client := NewClient("test-key", srv.URL, time.Second)
	ok, err := client.VerifySignature(context.Background(), json.RawMessage(`{"data":[42]}`), "sig-abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerificationURL(t *testing.T) {
	client := NewClient("test-key", "http://unused", time.Second)
	u := client.VerificationURL(json.RawMessage(`{"data":[42]}`), "sig/+abc")

	assert.Contains(t, u, "https://api.random.org/signatures/form?")
	assert.Contains(t, u, "format=json")
	assert.Contains(t, u, "signature=sig%2F%2Babc")
}
