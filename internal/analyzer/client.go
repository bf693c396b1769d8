package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

// Result is the structured data extracted from one slip image. Amount is kept
// as returned by the model (0 when missing or non-numeric) and Date is free
// text; neither is validated further here.
type Result struct {
	Payee    string
	Amount   float64
	Date     string
	Category string
}

// ErrAttemptsExhausted marks a terminal analysis failure: the retry budget is
// spent and no further automatic retries will happen.
var ErrAttemptsExhausted = errors.New("analysis attempts exhausted")

const (
	// DefaultModelName is the default Gemini model used for slip analysis.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultMaxAttempts is the total attempt budget per slip.
	DefaultMaxAttempts = 5

	// DefaultInitialBackoff is the wait after the first failed attempt; it
	// doubles after each subsequent failure.
	DefaultInitialBackoff = 1 * time.Second
)

// resultSchema constrains the model to a strictly-typed JSON object.
var resultSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"payee":    {Type: genai.TypeString, Description: "Recipient or merchant name"},
		"amount":   {Type: genai.TypeNumber, Description: "Amount paid"},
		"date":     {Type: genai.TypeString, Description: "Date and time, if present"},
		"category": {Type: genai.TypeString, Description: "One of the provided categories"},
	},
	Required: []string{"payee", "amount", "date", "category"},
}

// Config holds analyzer client settings. Zero values take the defaults above.
type Config struct {
	APIKey         string
	Model          string
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Client calls the external analyzer for one slip image at a time. It is
// stateless between calls apart from its configuration; the category list is
// passed in on every call.
type Client struct {
	model       string
	maxAttempts int
	initial     time.Duration
	log         zerolog.Logger

	// generate issues one remote call; sleep waits between attempts.
	// Both are replaceable in tests.
	generate func(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Gemini-backed analyzer client.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModelName
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: create genai client: %w", err)
	}

	c := &Client{
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
		initial:     cfg.InitialBackoff,
		log:         log,
		sleep:       sleepContext,
	}
	c.generate = func(ctx context.Context, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, c.model, contents, gcfg)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		text := resp.Text()
		if text == "" {
			return "", errors.New("empty response from model")
		}
		return text, nil
	}
	return c, nil
}

// Analyze extracts structured transaction data from one slip image. Transient
// failures (transport errors, empty or unparseable payloads) are retried with
// exponential backoff up to the attempt budget; the final error wraps
// ErrAttemptsExhausted. An out-of-set category in the response is coerced to
// the fallback before returning, never propagated.
func (c *Client) Analyze(ctx context.Context, image []byte, mimeType string, categories []string) (*Result, error) {
	if len(image) == 0 {
		return nil, errors.New("analyzer: empty image payload")
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(categories)},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	gcfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema,
	}

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.initial))

	var lastErr error
	for attempt := 1; ; attempt++ {
		raw, err := c.generate(ctx, contents, gcfg)
		if err == nil {
			var res *Result
			res, err = parseResult(raw, categories)
			if err == nil {
				return res, nil
			}
		}
		lastErr = err

		c.log.Warn().Err(err).Int("attempt", attempt).Msg("Slip analysis attempt failed")

		delay, stop := backoff.Next()
		if stop {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, attempt, lastErr)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
