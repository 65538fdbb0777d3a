package hooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voicetyped/simdial/pkg/events"
)

// Executor posts completion summaries to hook endpoints.
type Executor struct {
	httpClient   *http.Client
	publisher    *events.Publisher
	allowPrivate bool
}

// Option configures an Executor.
type Option func(*Executor)

// AllowPrivateHosts disables the private address check. Use only in tests
// and trusted networks.
func AllowPrivateHosts() Option {
	return func(e *Executor) { e.allowPrivate = true }
}

// NewExecutor creates a new hook executor. publisher may be nil.
func NewExecutor(publisher *events.Publisher, opts ...Option) *Executor {
	e := &Executor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		publisher: publisher,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Notify posts req to the configured endpoint and returns its response.
func (e *Executor) Notify(ctx context.Context, cfg HookConfig, req CompletionRequest) (*CompletionResponse, error) {
	if err := validateURL(ctx, cfg.URL, e.allowPrivate); err != nil {
		return nil, fmt.Errorf("hook URL validation: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal hook request: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create hook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	switch cfg.AuthType {
	case AuthBearer:
		httpReq.Header.Set("Authorization", "Bearer "+cfg.AuthSecret)
	case AuthHMAC:
		httpReq.Header.Set("X-Hook-Signature", Sign(cfg.AuthSecret, body))
	case "", AuthNone:
	default:
		return nil, fmt.Errorf("unknown hook auth type %q", cfg.AuthType)
	}

	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		e.emitError(ctx, req.RunID, cfg.URL, err.Error())
		return nil, fmt.Errorf("hook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	// Drain remainder for connection reuse.
	_, _ = io.Copy(io.Discard, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("hook returned HTTP %d: %s", resp.StatusCode, string(respBody))
		e.emitError(ctx, req.RunID, cfg.URL, errMsg)
		return nil, fmt.Errorf("%s", errMsg)
	}

	hookResp := CompletionResponse{Accepted: true}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &hookResp); err != nil {
			return nil, fmt.Errorf("unmarshal hook response: %w", err)
		}
	}

	_ = e.publisher.Emit(ctx, events.HookResult, req.RunID, &events.HookResultData{
		HookURL:    cfg.URL,
		StatusCode: resp.StatusCode,
	})
	return &hookResp, nil
}

func (e *Executor) emitError(ctx context.Context, runID, url, msg string) {
	_ = e.publisher.Emit(ctx, events.HookError, runID, &events.HookErrorData{
		HookURL: url,
		Error:   msg,
	})
}

// Sign returns the X-Hook-Signature value for payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%x", mac.Sum(nil))
}
