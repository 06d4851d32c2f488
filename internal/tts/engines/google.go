package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/tts"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// DefaultGoogleEndpoint is the public Cloud Text-to-Speech API.
const DefaultGoogleEndpoint = "https://texttospeech.googleapis.com"

// maxSSMLSize is the upstream limit on input length.
const maxSSMLSize = 5000

// GoogleConfig holds configuration for the Google engine.
type GoogleConfig struct {
	APIKey string

	// CredentialsFile is a service account or authorized user JSON file,
	// used when APIKey is empty.
	CredentialsFile string

	// Endpoint defaults to DefaultGoogleEndpoint.
	Endpoint string

	// Timeout bounds one request. Defaults to 30 seconds.
	Timeout time.Duration

	// RequestsPerMinute limits the request rate. Defaults to 60.
	RequestsPerMinute int

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// Google implements tts.Synthesizer on the Cloud Text-to-Speech REST API.
type Google struct {
	apiKey   string
	endpoint string
	client   *http.Client

	rateLimiter *rate.Limiter
}

// NewGoogle creates a Google engine.
func NewGoogle(config GoogleConfig) (*Google, error) {
	if config.APIKey == "" && config.CredentialsFile == "" {
		return nil, errors.New("google engine requires an API key or a credentials file (set MURMUR_GOOGLE_API_KEY)")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultGoogleEndpoint
	}
	if _, err := url.Parse(config.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 60
	}
	if config.HTTPClient == nil {
		client, err := newHTTPClient(config)
		if err != nil {
			return nil, err
		}
		config.HTTPClient = client
	}

	return &Google{
		apiKey:      config.APIKey,
		endpoint:    strings.TrimRight(config.Endpoint, "/"),
		client:      config.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}, nil
}

// newHTTPClient returns a plain client for API key auth, or one that adds
// OAuth2 tokens from the credentials file.
func newHTTPClient(config GoogleConfig) (*http.Client, error) {
	base := &http.Client{Timeout: config.Timeout}
	if config.APIKey != "" {
		return base, nil
	}

	data, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	creds, err := google.CredentialsFromJSON(ctx, data, texttospeech.CloudPlatformScope) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file: %w", err)
	}
	log.Debug("Using Google credentials", "path", config.CredentialsFile, "project", creds.ProjectID)

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = config.Timeout
	return client, nil
}

// Name returns "google".
func (g *Google) Name() string {
	return "google"
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Synthesize posts the SSML and returns the base64 audioContent untouched.
func (g *Google) Synthesize(ctx context.Context, req tts.SynthesisRequest) (string, error) {
	if len(req.SSML) > maxSSMLSize {
		return "", &tts.SynthesisError{
			Message: fmt.Sprintf("input too long: %d bytes (max %d)", len(req.SSML), maxSSMLSize),
		}
	}
	if req.Format.Channels != 1 {
		return "", &tts.SynthesisError{
			Message: fmt.Sprintf("google voices are mono, %d channels requested", req.Format.Channels),
		}
	}

	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", &tts.SynthesisError{Message: "rate limit wait cancelled", Err: err}
	}

	body, err := json.Marshal(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Ssml: req.SSML},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: req.Voice.LanguageCode(),
			Name:         req.Voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "PCM",
			SampleRateHertz: int64(req.Format.SampleRate),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := g.endpoint + "/v1/text:synthesize"
	if g.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(g.apiKey)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	requestID := req.ID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", &tts.SynthesisError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &tts.SynthesisError{Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	log.Debug("Google synthesis response",
		"id", requestID,
		"status", resp.StatusCode,
		"bytes", len(data),
		"took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &tts.SynthesisError{Status: resp.StatusCode, Message: upstreamMessage(resp, data)}
	}

	var out texttospeech.SynthesizeSpeechResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &tts.SynthesisError{Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	if out.AudioContent == "" {
		return "", &tts.SynthesisError{Status: resp.StatusCode, Message: "response contained no audio"}
	}

	return out.AudioContent, nil
}

// upstreamMessage extracts the API's error message, falling back to the
// HTTP status text.
func upstreamMessage(resp *http.Response, body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		if e.Error.Status != "" {
			return e.Error.Status + ": " + e.Error.Message
		}
		return e.Error.Message
	}
	return http.StatusText(resp.StatusCode)
}
