package synth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/voicestudio/internal/config"
)

func testConfig(endpoint string) config.SynthConfig {
	cfg := config.DefaultConfig().Synth
	cfg.Endpoint = endpoint
	cfg.APIKey = "test-key"

	return cfg
}

// recordSleeps collects backoff delays instead of waiting.
type recordSleeps struct {
	delays []time.Duration
}

func (r *recordSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func audioResponse(pcm []byte, mimeType string) string {
	return `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"` + mimeType +
		`","data":"` + base64.StdEncoding.EncodeToString(pcm) + `"}}]},"finishReason":"STOP"}]}`
}

func newTestClient(t *testing.T, srv *httptest.Server, sleeps *recordSleeps) *Client {
	t.Helper()

	return NewClient(testConfig(srv.URL),
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSleep(sleeps.sleep),
	)
}

func TestClient_Success(t *testing.T) {
	var gotBody generateRequest
	var gotPath, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, audioResponse([]byte{0, 0, 0, 64, 0, 192}, "audio/L16;codec=pcm;rate=24000"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &recordSleeps{})
	p := Profile{Name: "Host", Description: "A deep voiced king", Vibe: "Dramatic"}

	res, err := c.Synthesize(context.Background(), "Hello", p)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if gotPath != "/v1beta/models/gemini-2.5-flash-preview-tts:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}

	if got := gotBody.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != VoiceCharon {
		t.Errorf("voice = %q; want %q", got, VoiceCharon)
	}
	if len(gotBody.SafetySettings) != 4 {
		t.Errorf("safety settings = %d; want 4", len(gotBody.SafetySettings))
	}
	for _, s := range gotBody.SafetySettings {
		if s.Threshold != "BLOCK_NONE" {
			t.Errorf("%s threshold = %q", s.Category, s.Threshold)
		}
	}
	if got := gotBody.Contents[0].Parts[0].Text; got != BuildPrompt("Hello", p) {
		t.Errorf("prompt = %q", got)
	}

	if res.SampleRate != 24000 || res.Channels != 1 || res.Voice != VoiceCharon {
		t.Errorf("result = %+v", res)
	}

	buf, err := res.Buffer()
	if err != nil {
		t.Fatalf("Buffer: %v", err)
	}
	if buf.Len() != 3 {
		t.Fatalf("Len = %d; want 3", buf.Len())
	}
	want := []float32{0, 0.5, -0.5}
	for i, w := range want {
		if got := buf.Channel(0)[i]; got != w {
			t.Errorf("sample[%d] = %v; want %v", i, got, w)
		}
	}
}

func TestClient_RetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"message":"overloaded"}}`)
			return
		}
		_, _ = io.WriteString(w, audioResponse([]byte{1, 0}, "audio/L16;rate=16000"))
	}))
	defer srv.Close()

	sleeps := &recordSleeps{}
	res, err := newTestClient(t, srv, sleeps).Synthesize(context.Background(), "x", Profile{Name: "A"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("calls = %d; want 3", calls.Load())
	}
	if len(sleeps.delays) != 2 || sleeps.delays[0] != time.Second || sleeps.delays[1] != 2*time.Second {
		t.Errorf("delays = %v; want [1s 2s]", sleeps.delays)
	}
	if res.SampleRate != 16000 {
		t.Errorf("SampleRate = %d; want 16000", res.SampleRate)
	}
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, &recordSleeps{}).Synthesize(context.Background(), "x", Profile{Name: "A"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v; want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusTooManyRequests || !reqErr.Retryable {
		t.Errorf("RequestError = %+v", reqErr)
	}
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Error("error does not match ErrSynthesisFailed")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d; want 3", calls.Load())
	}
}

func TestClient_DoesNotRetry(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, e *RequestError)
	}{
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"invalid voice"}}`,
			check: func(t *testing.T, e *RequestError) {
				if e.StatusCode != 400 || e.Retryable || !strings.Contains(e.Error(), "invalid voice") {
					t.Errorf("RequestError = %+v (%v)", e, e)
				}
			},
		},
		{
			name:   "refusal",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"I can't read that."}]}}]}`,
			check: func(t *testing.T, e *RequestError) {
				if e.Refusal != "I can't read that." {
					t.Errorf("Refusal = %q", e.Refusal)
				}
				if !strings.HasPrefix(e.Error(), "model refusal:") {
					t.Errorf("Error() = %q", e.Error())
				}
			},
		},
		{
			name:   "no audio",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
			check: func(t *testing.T, e *RequestError) {
				if !e.Safety {
					t.Errorf("Safety = false; want true (%v)", e)
				}
			},
		},
		{
			name:   "prompt blocked",
			status: http.StatusOK,
			body:   `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			check: func(t *testing.T, e *RequestError) {
				if !e.Safety {
					t.Errorf("Safety = false; want true (%v)", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, &recordSleeps{}).Synthesize(context.Background(), "x", Profile{Name: "A"})

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %v; want *RequestError", err)
			}
			tt.check(t, reqErr)

			if calls.Load() != 1 {
				t.Errorf("calls = %d; want 1", calls.Load())
			}
		})
	}
}

func TestClient_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	sleeps := &recordSleeps{}
	c := NewClient(testConfig(url),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSleep(sleeps.sleep),
	)

	_, err := c.Synthesize(context.Background(), "x", Profile{Name: "A"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || !reqErr.Retryable || reqErr.StatusCode != 0 {
		t.Fatalf("error = %v; want retryable transport RequestError", err)
	}
	if len(sleeps.delays) != 2 {
		t.Errorf("retries = %d; want 2", len(sleeps.delays))
	}
}

func TestClient_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(testConfig(srv.URL),
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	_, err := c.Synthesize(ctx, "x", Profile{Name: "A"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled", err)
	}
}

func TestSampleRateOf(t *testing.T) {
	tests := []struct {
		mime string
		want int
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000},
		{"audio/L16; rate=8000", 8000},
		{"audio/L16", DefaultSampleRate},
		{"audio/L16;rate=abc", DefaultSampleRate},
		{"", DefaultSampleRate},
	}

	for _, tt := range tests {
		if got := sampleRateOf(tt.mime); got != tt.want {
			t.Errorf("sampleRateOf(%q) = %d; want %d", tt.mime, got, tt.want)
		}
	}
}
