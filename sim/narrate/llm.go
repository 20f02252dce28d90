package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/sirupsen/logrus"

	"github.com/chainreact/chainreact-sim/sim"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

const (
	eventSystemPrompt   = "You are a concise supply chain analyst providing a one-sentence summary for a live dashboard. Be insightful but brief."
	summarySystemPrompt = "You are an AI analyst summarizing a completed supply chain simulation for an executive dashboard. Provide a 2-3 sentence insightful summary of the results."

	eventTemperature   = 0.5
	summaryTemperature = 0.7
)

// ErrRejected marks responses that retrying cannot fix (4xx other than 429).
var ErrRejected = errors.New("request rejected")

// ErrNoModel is returned when model discovery finds no usable chat model.
var ErrNoModel = errors.New("no active chat model")

// Config configures an LLM narrator.
type Config struct {
	BaseURL string
	APIKey  string
	// Model skips discovery when set.
	Model string

	Timeout          time.Duration // per Describe/Summarize call, retries included
	MaxAttempts      int
	RetryDelay       time.Duration
	BreakerThreshold int           // consecutive failures before the breaker opens
	BreakerCooldown  time.Duration // how long it stays open
}

// DefaultConfig returns the Groq endpoint with conservative resilience settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          10 * time.Second,
		MaxAttempts:      2,
		RetryDelay:       250 * time.Millisecond,
		BreakerThreshold: 3,
		BreakerCooldown:  30 * time.Second,
	}
}

// LLM narrates events through a chat-completions API.
type LLM struct {
	cfg        Config
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker[string]
	retrier    retry.Retry[string]

	mu    sync.Mutex
	model string
}

// NewLLM creates an LLM narrator. Returns nil if cfg.APIKey is empty.
// Zero-valued resilience settings take DefaultConfig values.
func NewLLM(cfg Config) *LLM {
	if cfg.APIKey == "" {
		return nil
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}
	threshold := uint32(cfg.BreakerThreshold) // #nosec G115 -- positive, checked above

	return &LLM{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.New[string](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.BreakerCooldown,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
		retrier: retry.New[string](retry.Config{
			MaxAttempts:        cfg.MaxAttempts,
			InitialDelay:       cfg.RetryDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         2.0,
			NonRetryableErrors: []error{ErrRejected, ErrNoModel},
		}),
		model: cfg.Model,
	}
}

// Enabled reports whether the narrator has credentials.
func (l *LLM) Enabled() bool {
	return l != nil && l.cfg.APIKey != ""
}

// Describe implements sim.Narrator.
func (l *LLM) Describe(ctx context.Context, kind sim.EventKind, data map[string]any) (string, bool) {
	if kind != sim.KindBullwhip && kind != sim.KindDemandShift && kind != sim.KindDisruption {
		return UnknownEventText, true
	}
	if !l.Enabled() {
		return "", false
	}
	text, err := l.complete(ctx, eventSystemPrompt, eventPrompt(kind, data), eventTemperature)
	if err != nil {
		logrus.Warnf("narrator: %s commentary unavailable: %v", kind, err)
		return "", false
	}
	return text, true
}

// Summarize implements Summarizer.
func (l *LLM) Summarize(ctx context.Context, s sim.RunSummary) (string, bool) {
	if !l.Enabled() {
		return "", false
	}
	payload, err := json.Marshal(map[string]any{
		"agent_config": s.Policies,
		"total_costs":  s.TotalCosts,
	})
	if err != nil {
		return "", false
	}
	prompt := fmt.Sprintf("The simulation is complete. Here is the final data: %s. "+
		"Analyze these results, focusing on the total costs and the performance of different agent types (PREDICTIVE vs STANDARD).", payload)
	text, err := l.complete(ctx, summarySystemPrompt, prompt, summaryTemperature)
	if err != nil {
		logrus.Warnf("narrator: final summary unavailable: %v", err)
		return "", false
	}
	return text, true
}

func eventPrompt(kind sim.EventKind, data map[string]any) string {
	week := intField(data, "week")
	switch kind {
	case sim.KindBullwhip:
		return fmt.Sprintf("A bullwhip effect is suspected at week %d. Retailer order is %d while Distributor order has spiked to %d. Explain this variance.",
			week, intField(data, "retailer_order"), intField(data, "distributor_order"))
	case sim.KindDemandShift:
		return fmt.Sprintf("At week %d, the base customer demand permanently increased from %d to %d. Briefly state the long-term impact of this market shift.",
			week, intField(data, "from"), intField(data, "to"))
	default:
		return fmt.Sprintf("A major disruption was injected at week %d. Demand was artificially spiked to %d for %d weeks. Describe the immediate impact.",
			week, intField(data, "value"), intField(data, "duration"))
	}
}

// complete runs one chat completion under timeout, circuit breaker and retry.
func (l *LLM) complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	return l.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return l.retrier.Do(ctx, func(ctx context.Context) (string, error) {
			model, err := l.activeModel(ctx)
			if err != nil {
				return "", err
			}
			return l.chat(ctx, model, system, prompt, temperature)
		})
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (l *LLM) chat(ctx context.Context, model, system, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}
	data, err := l.do(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type modelList struct {
	Data []struct {
		ID     string `json:"id"`
		Active *bool  `json:"active"`
	} `json:"data"`
}

// activeModel returns the configured model, or discovers one and caches it.
// A failed discovery is retried on the next call.
func (l *LLM) activeModel(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model != "" {
		return l.model, nil
	}

	data, err := l.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return "", fmt.Errorf("listing models: %w", err)
	}
	var list modelList
	if err := json.Unmarshal(data, &list); err != nil {
		return "", fmt.Errorf("decoding model list: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		if m.Active == nil || *m.Active {
			ids = append(ids, m.ID)
		}
	}
	model := pickModel(ids)
	if model == "" {
		return "", ErrNoModel
	}
	logrus.Infof("narrator: using model %s", model)
	l.model = model
	return model, nil
}

// pickModel skips audio models (whisper, tts) and stops at the first llama3
// model; otherwise the last candidate wins.
func pickModel(ids []string) string {
	found := ""
	for _, id := range ids {
		lower := strings.ToLower(id)
		if strings.Contains(lower, "whisper") || strings.Contains(lower, "tts") {
			continue
		}
		found = id
		if strings.Contains(lower, "llama3") {
			break
		}
	}
	return found
}

func (l *LLM) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, l.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrRejected, method, path, resp.StatusCode, truncate(data, 200))
		}
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, truncate(data, 200))
	}
	return data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
