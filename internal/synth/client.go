package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/config"
)

// DefaultSampleRate is assumed when the response MIME type carries no rate.
const DefaultSampleRate = 24000

var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Synthesizer turns a script and a voice profile into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, script string, p Profile) (*Result, error)
}

// Result is the decoded audio payload of a successful request.
type Result struct {
	PCM        []byte
	MIMEType   string
	SampleRate int
	Channels   int
	Voice      string
}

// Buffer decodes the payload. Raw PCM is read as signed 16-bit LE at the
// advertised rate.
func (r *Result) Buffer() (*audio.Buffer, error) {
	return audio.DecodePayload(r.PCM, r.SampleRate, r.Channels)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithSleep replaces the backoff wait. Tests use it to avoid real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client calls the generateContent REST endpoint of a speech model.
type Client struct {
	cfg   config.SynthConfig
	http  *http.Client
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg config.SynthConfig, opts ...Option) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	c := &Client{
		cfg:   cfg,
		http:  http.DefaultClient,
		log:   slog.Default(),
		sleep: sleepContext,
	}
	for _, fn := range opts {
		fn(c)
	}

	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Synthesize builds the prompt, selects a voice and performs the request,
// retrying retryable failures with exponential backoff.
func (c *Client) Synthesize(ctx context.Context, script string, p Profile) (*Result, error) {
	voice := SelectVoice(p)

	body, err := json.Marshal(newRequest(BuildPrompt(script, p), voice))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	requestID := uuid.NewString()
	delay := time.Duration(c.cfg.InitialBackoffMS) * time.Millisecond

	for attempt := 1; ; attempt++ {
		res, err := c.attempt(ctx, body, requestID)
		if err == nil {
			res.Voice = voice
			return res, nil
		}

		var reqErr *RequestError
		if !errors.As(err, &reqErr) || !reqErr.Retryable || attempt >= c.cfg.MaxAttempts {
			return nil, err
		}

		c.log.WarnContext(ctx, "synthesis attempt failed, retrying",
			slog.String("request_id", requestID),
			slog.Int("attempt", attempt),
			slog.Int("attempts_left", c.cfg.MaxAttempts-attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, &RequestError{Err: err}
		}
		delay *= 2
	}
}

func (c *Client) attempt(parent context.Context, body []byte, requestID string) (*Result, error) {
	ctx := parent
	if c.cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.cfg.APIKey != "" {
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures and attempt timeouts are retryable unless the caller gave up.
		return nil, &RequestError{Retryable: parent.Err() == nil, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Retryable: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
			Err:        errors.New(apiErrorMessage(data, resp.Status)),
		}
	}

	return parseResponse(data)
}

// ---------------------------------------------------------------------------
// Wire format
// ---------------------------------------------------------------------------

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Parts []part `json:"parts"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func newRequest(prompt, voice string) generateRequest {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voice

	for _, cat := range safetyCategories {
		req.SafetySettings = append(req.SafetySettings, safetySetting{Category: cat, Threshold: "BLOCK_NONE"})
	}

	return req
}

func parseResponse(data []byte) (*Result, error) {
	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &RequestError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.PromptFeedback.BlockReason != "" {
		return nil, &RequestError{Safety: true, Err: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
	}

	var first *part
	var finish string
	if len(resp.Candidates) > 0 {
		finish = resp.Candidates[0].FinishReason
		if parts := resp.Candidates[0].Content.Parts; len(parts) > 0 {
			first = &parts[0]
		}
	}

	if first == nil || first.InlineData == nil || first.InlineData.Data == "" {
		if first != nil && first.Text != "" {
			return nil, &RequestError{Refusal: first.Text, Err: errors.New("model returned text instead of audio")}
		}

		return nil, &RequestError{
			Safety: true,
			Err:    fmt.Errorf("no audio data returned (finish reason %q)", finish),
		}
	}

	pcm, err := audio.DecodeBase64(first.InlineData.Data)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	return &Result{
		PCM:        pcm,
		MIMEType:   first.InlineData.MIMEType,
		SampleRate: sampleRateOf(first.InlineData.MIMEType),
		Channels:   1,
	}, nil
}

// sampleRateOf reads the rate parameter of e.g. "audio/L16;codec=pcm;rate=24000".
func sampleRateOf(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return DefaultSampleRate
	}

	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return DefaultSampleRate
	}

	return rate
}

func apiErrorMessage(data []byte, status string) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}

	return status
}
