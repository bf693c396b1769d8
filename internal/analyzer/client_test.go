package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/slip-scanner/internal/ledger"
)

var testCategories = []string{"Food", "Shopping", ledger.FallbackCategory}

// newTestClient builds a client whose remote call and backoff sleeps are
// controlled by the test. Recorded sleep durations land in *sleeps.
func newTestClient(generate func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error), sleeps *[]time.Duration) *Client {
	return &Client{
		model:       DefaultModelName,
		maxAttempts: DefaultMaxAttempts,
		initial:     DefaultInitialBackoff,
		log:         zerolog.Nop(),
		generate:    generate,
		sleep: func(ctx context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return nil
		},
	}
}

func TestAnalyze_Success(t *testing.T) {
	var sleeps []time.Duration
	c := newTestClient(func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
		return `{"payee":"Coffee House","amount":4.5,"date":"2026-08-01 09:15","category":"Food"}`, nil
	}, &sleeps)

	res, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", testCategories)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if res.Payee != "Coffee House" || res.Amount != 4.5 || res.Date != "2026-08-01 09:15" || res.Category != "Food" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(sleeps) != 0 {
		t.Errorf("expected no backoff sleeps, got %v", sleeps)
	}
}

func TestAnalyze_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	var sleeps []time.Duration
	c := newTestClient(func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
		attempts++
		if attempts < 5 {
			return "", errors.New("transport error")
		}
		return `{"payee":"Market","amount":12,"date":"-","category":"Shopping"}`, nil
	}, &sleeps)

	res, err := c.Analyze(context.Background(), []byte("img"), "image/png", testCategories)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if res.Payee != "Market" {
		t.Errorf("result should come from the 5th attempt, got %+v", res)
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", sleeps, want)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleeps[%d] = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestAnalyze_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	var sleeps []time.Duration
	c := newTestClient(func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
		attempts++
		return "", errors.New("transport error")
	}, &sleeps)

	_, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", testCategories)
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("error = %v, want ErrAttemptsExhausted", err)
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}
	// No wait after the terminal attempt.
	if len(sleeps) != 4 {
		t.Errorf("sleeps = %v, want 4 entries", sleeps)
	}
}

func TestAnalyze_MalformedJSONIsRetried(t *testing.T) {
	attempts := 0
	var sleeps []time.Duration
	c := newTestClient(func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
		attempts++
		if attempts == 1 {
			return "not json at all", nil
		}
		return `{"payee":"Garage","amount":60,"date":"-","category":"Fuel"}`, nil
	}, &sleeps)

	res, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", []string{"Fuel", ledger.FallbackCategory})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if res.Category != "Fuel" {
		t.Errorf("Category = %q, want Fuel", res.Category)
	}
}

func TestAnalyze_OutOfSetCategoryCoerced(t *testing.T) {
	var sleeps []time.Duration
	c := newTestClient(func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
		return `{"payee":"Pet Shop","amount":20,"date":"-","category":"Unicorn"}`, nil
	}, &sleeps)

	res, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", testCategories)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if res.Category != ledger.FallbackCategory {
		t.Errorf("Category = %q, want %q", res.Category, ledger.FallbackCategory)
	}
}

func TestAnalyze_EmptyImageRejected(t *testing.T) {
	called := false
	var sleeps []time.Duration
	c := newTestClient(func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
		called = true
		return "", nil
	}, &sleeps)

	if _, err := c.Analyze(context.Background(), nil, "image/jpeg", testCategories); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if called {
		t.Error("remote call should not be issued for an empty payload")
	}
}

func TestAnalyze_SleepErrorAborts(t *testing.T) {
	c := &Client{
		model:       DefaultModelName,
		maxAttempts: DefaultMaxAttempts,
		initial:     DefaultInitialBackoff,
		log:         zerolog.Nop(),
		generate: func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
			return "", errors.New("transport error")
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}

	_, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", testCategories)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBuildPrompt_EmbedsCategories(t *testing.T) {
	prompt := buildPrompt([]string{"Food", "Travel", ledger.FallbackCategory})

	for _, want := range []string{"- Food\n", "- Travel\n", "- " + ledger.FallbackCategory + "\n"} {
		if !containsStr(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func containsStr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
