// Package hooks notifies an external HTTP endpoint when a corpus run ends.
package hooks

import "github.com/voicetyped/simdial/pkg/corpus"

// Auth types accepted in HookConfig.AuthType.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthHMAC   = "hmac"
)

// HookConfig describes how to call the completion endpoint.
type HookConfig struct {
	URL        string            `yaml:"url"         json:"url"`
	AuthType   string            `yaml:"auth_type"   json:"auth_type"`
	AuthSecret string            `yaml:"auth_secret" json:"auth_secret"` // token or HMAC key
	TimeoutSec int               `yaml:"timeout_sec" json:"timeout_sec"`
	Headers    map[string]string `yaml:"headers"     json:"headers,omitempty"`
}

// Enabled reports whether a hook URL is configured.
func (c HookConfig) Enabled() bool {
	return c.URL != ""
}

// CompletionRequest is the summary posted when a corpus run finishes.
type CompletionRequest struct {
	RunID      string       `json:"run_id"`
	Domain     string       `json:"domain"`
	Complexity string       `json:"complexity"`
	Size       int          `json:"size"`
	Seed       uint64       `json:"seed"`
	Output     []string     `json:"output,omitempty"`
	Stats      corpus.Stats `json:"stats"`
}

// CompletionResponse is the optional body returned by the endpoint.
type CompletionResponse struct {
	Accepted bool           `json:"accepted"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
