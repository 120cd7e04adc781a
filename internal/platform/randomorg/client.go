package randomorg

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"streamraffle-backend/internal/features/draw/models"
)

// ErrNotConfigured is returned when no API key is present. A draw cannot
// proceed without a randomness provider.
var ErrNotConfigured = errors.New("random.org api key not configured")

const verificationFormURL = "https://api.random.org/signatures/form"

// Client talks to the Random.org Signed API (JSON-RPC). It implements the
// draw engine's randomness source contract: generate one signed integer,
// verify a payload/signature pair, and build a human verification URL.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      string      `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      string          `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("random.org error %d: %s", e.Code, e.Message)
}

type signedIntegersParams struct {
	APIKey      string `json:"apiKey"`
	N           int    `json:"n"`
	Min         int64  `json:"min"`
	Max         int64  `json:"max"`
	Replacement bool   `json:"replacement"`
	UserData    string `json:"userData,omitempty"`
}

type signedIntegersResult struct {
	Random    json.RawMessage `json:"random"`
	Signature string          `json:"signature"`
}

type randomData struct {
	Data []int64 `json:"data"`
}

type verifyParams struct {
	Random    json.RawMessage `json:"random"`
	Signature string          `json:"signature"`
}

type verifyResult struct {
	Authenticity bool `json:"authenticity"`
}

// GenerateSignedInt requests one signed random integer in [0, max-1],
// tagging the request so the provider's own audit log disambiguates draws.
func (c *Client) GenerateSignedInt(ctx context.Context, max int64, tag string) (*models.SignedRandom, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var result signedIntegersResult
	err := c.call(ctx, "generateSignedIntegers", signedIntegersParams{
		APIKey:      c.apiKey,
		N:           1,
		Min:         0,
		Max:         max - 1,
		Replacement: true,
		UserData:    tag,
	}, &result)
	if err != nil {
		return nil, err
	}

	var data randomData
	if err := json.Unmarshal(result.Random, &data); err != nil {
		return nil, fmt.Errorf("failed to decode random payload: %w", err)
	}
	if len(data.Data) != 1 {
		return nil, fmt.Errorf("expected 1 integer, got %d", len(data.Data))
	}

	return &models.SignedRandom{
		Value:     data.Data[0],
		Payload:   result.Random,
		Signature: result.Signature,
	}, nil
}

// VerifySignature checks a payload/signature pair against the provider's
// verification service.
func (c *Client) VerifySignature(ctx context.Context, payload json.RawMessage, signature string) (bool, error) {
	var result verifyResult
	err := c.call(ctx, "verifySignature", verifyParams{
		Random:    payload,
		Signature: signature,
	}, &result)
	if err != nil {
		return false, err
	}
	return result.Authenticity, nil
}

// VerificationURL builds the human-readable verification form URL for a
// payload/signature pair.
func (c *Client) VerificationURL(payload json.RawMessage, signature string) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("random", base64.StdEncoding.EncodeToString(payload))
	q.Set("signature", signature)
	return verificationFormURL + "?" + q.Encode()
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      uuid.New().String(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("random.org request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("random.org returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode random.org response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	return json.Unmarshal(rpcResp.Result, result)
}
