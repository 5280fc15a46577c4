package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultPort     = "8178"
	sentinelFile    = "transcriptai_whisper_port"
	inferenceTimeout = 300 * time.Second
	loadTimeout      = 120 * time.Second
	healthTimeout    = 800 * time.Millisecond
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the http.Client used for every request. Health
// substitutes its own short-timeout client when this one's timeout is unset
// or longer than the health timeout.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is a thin HTTP client over the co-located whisper.cpp-style
// transcription server. It never panics or returns an error to callers for
// the operations that the server contract expects to fail occasionally
// (transcribe) — those return a structured failure in the result instead.
type Client struct {
	baseURL    string
	httpClient *http.Client
	modelHint  string // last model successfully loaded via load_model
}

// NewClient discovers the transcription server's port via the documented
// fallback order (environment variable > sentinel file under dataDir >
// fixed default) and returns a ready Client.
func NewClient(envPort, dataDir string, options ...ClientOption) *Client {
	port := discoverPort(envPort, dataDir)
	c := &Client{
		baseURL: fmt.Sprintf("http://127.0.0.1:%s", port),
		httpClient: &http.Client{
			Timeout: inferenceTimeout,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func discoverPort(envPort, dataDir string) string {
	if envPort != "" {
		return envPort
	}
	if dataDir != "" {
		if b, err := os.ReadFile(filepath.Join(dataDir, sentinelFile)); err == nil {
			if port := strings.TrimSpace(string(b)); port != "" {
				return port
			}
		}
	}
	return defaultPort
}

// TranscribeOptions carries the optional tuning accepted by transcribe().
type TranscribeOptions struct {
	Language      string
	Task          string // "transcribe" | "translate"
	InitialPrompt string
}

// TranscribeResult is the deduplicated response from the transcription
// server. Ok is false (with Error set) on any failure — never returns a Go
// error to the caller, per the client's "never throws" contract.
type TranscribeResult struct {
	Ok         bool
	Error      string
	Text       string
	Segments   []Segment
	Language   string
	Confidence float64 // 0-100, averaged from segment avg_logprob; 0 if unavailable
	DedupStats DedupStats
}

// Segment mirrors one element of the transcription server's segments array.
// AvgLogprob is a pointer because the server only attaches it when it ran
// the scoring pass; its absence (nil) is distinct from a real 0.0 score.
type Segment struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	AvgLogprob *float64 `json:"avg_logprob,omitempty"`
}

type inferenceResponse struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Transcribe posts audioPath to /inference with the anti-hallucination
// tuning fixed in the server contract, then runs the always-on
// deduplication pass before returning.
func (c *Client) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) TranscribeResult {
	f, err := os.Open(audioPath)
	if err != nil {
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("open audio file: %v", err)}
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("build multipart body: %v", err)}
	}
	if _, err := io.Copy(part, f); err != nil {
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("read audio file: %v", err)}
	}

	task := opts.Task
	if task == "" {
		task = "transcribe"
	}
	fields := map[string]string{
		"response_format":             "json",
		"temperature":                 "0.0",
		"entropy_threshold":           "2.8",
		"logprob_threshold":           "-1.0",
		"no_speech_threshold":         "0.6",
		"suppress_blank":              "true",
		"suppress_non_speech_tokens":  "true",
		"max_context":                 "64",
		"beam_size":                   "5",
		"condition_on_previous_text":  "false",
		"task":                        task,
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	if opts.InitialPrompt != "" {
		fields["prompt"] = opts.InitialPrompt
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return TranscribeResult{Ok: false, Error: fmt.Sprintf("write form field %s: %v", k, err)}
		}
	}
	if err := writer.Close(); err != nil {
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("close multipart writer: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, inferenceTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", body)
	if err != nil {
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// connection refused / timeout: structured failure, never panic.
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("transcription server unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("transcription server returned %d: %s", resp.StatusCode, string(raw))}
	}

	var parsed inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return TranscribeResult{Ok: false, Error: fmt.Sprintf("decode response: %v", err)}
	}

	text, segments, stats := Dedup(parsed.Text, parsed.Segments)

	return TranscribeResult{
		Ok:         true,
		Text:       text,
		Segments:   segments,
		Language:   parsed.Language,
		Confidence: confidenceFromSegments(segments),
		DedupStats: stats,
	}
}

// LoadModel hot-swaps the server's active model via POST /load.
func (c *Client) LoadModel(ctx context.Context, absolutePath string) (ok bool, errMsg string) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	payload, _ := json.Marshal(map[string]string{"model": absolutePath})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/load", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("transcription server unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return false, fmt.Sprintf("load_model returned %d: %s", resp.StatusCode, string(raw))
	}

	c.modelHint = absolutePath
	return true, ""
}

// HealthStatus is the result of a health probe.
type HealthStatus string

const (
	HealthReady   HealthStatus = "ready"
	HealthOffline HealthStatus = "offline"
	HealthError   HealthStatus = "error"
)

// Health performs a short-timeout GET / health probe.
func (c *Client) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return HealthError
	}

	client := c.httpClient
	if client.Timeout == 0 || client.Timeout > healthTimeout {
		client = &http.Client{Timeout: healthTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return HealthOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return HealthReady
	}
	return HealthError
}

// EnsureReady polls Health until it reports ready or the context is done.
func (c *Client) EnsureReady(ctx context.Context, pollEvery time.Duration) bool {
	if pollEvery <= 0 {
		pollEvery = 500 * time.Millisecond
	}
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	if c.Health(ctx) == HealthReady {
		return true
	}
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if c.Health(ctx) == HealthReady {
				return true
			}
		}
	}
}

// ActiveModel returns the last model loaded via LoadModel, for diagnostics.
func (c *Client) ActiveModel() string {
	return c.modelHint
}
