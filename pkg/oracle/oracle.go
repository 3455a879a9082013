// Package oracle asks a chat-completion model to interpret date expressions the local grammar could not.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/taskflow/pkg/otelhelper"
)

const (
	defaultModel      = "gpt-4o"
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultMaxTokens  = 200
	defaultHour       = 23
	defaultMinute     = 59
	defaultConfidence = 0.85

	systemPrompt = "You are a precise date parser. Return only valid JSON."
)

var (
	// ErrUnavailable is returned when no API key is configured.
	ErrUnavailable = errors.New("date oracle unavailable")

	// ErrMalformedReply is returned when the model's answer is not the agreed JSON shape.
	ErrMalformedReply = errors.New("malformed date oracle reply")
)

// replySchema is the contract the model's answer must satisfy.
var replySchema = map[string]any{
	"type":     "object",
	"required": []any{"success"},
	"properties": map[string]any{
		"success":    map[string]any{"type": "boolean"},
		"year":       map[string]any{"type": "integer", "minimum": 1},
		"month":      map[string]any{"type": "integer", "minimum": 1, "maximum": 12},
		"day":        map[string]any{"type": "integer", "minimum": 1, "maximum": 31},
		"hour":       map[string]any{"type": "integer", "minimum": 0, "maximum": 23},
		"minute":     map[string]any{"type": "integer", "minimum": 0, "maximum": 59},
		"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"reasoning":  map[string]any{"type": "string"},
	},
	"if": map[string]any{
		"properties": map[string]any{"success": map[string]any{"const": true}},
	},
	"then": map[string]any{
		"required": []any{"year", "month", "day"},
	},
}

// Config holds the chat-completion connection settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// DateReply is the model's structured interpretation of a date expression.
type DateReply struct {
	Success    bool     `json:"success"`
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	Day        int      `json:"day"`
	Hour       *int     `json:"hour,omitempty"`
	Minute     *int     `json:"minute,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reasoning  string   `json:"reasoning"`
}

// Time returns the reply as an instant in loc. Hour and minute default to 23:59.
func (r DateReply) Time(loc *time.Location) (time.Time, error) {
	hour, minute := defaultHour, defaultMinute
	if r.Hour != nil {
		hour = *r.Hour
	}

	if r.Minute != nil {
		minute = *r.Minute
	}

	resolved := time.Date(r.Year, time.Month(r.Month), r.Day, hour, minute, 0, 0, loc)
	if resolved.Day() != r.Day || int(resolved.Month()) != r.Month {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrMalformedReply, r.Year, r.Month, r.Day)
	}

	return resolved, nil
}

// ConfidenceOrDefault returns the model's confidence, 0.85 when it gave none.
func (r DateReply) ConfidenceOrDefault() float64 {
	if r.Confidence == nil {
		return defaultConfidence
	}

	return *r.Confidence
}

// Client resolves dates through a chat-completion API. The underlying API
// client is built once, on first use, and shared by all calls.
type Client struct {
	config Config
	logger *slog.Logger
	tracer trace.Tracer

	once sync.Once
	api  *openai.Client
}

// NewClient returns a client for config. A nil tracer disables tracing.
func NewClient(config Config, logger *slog.Logger, tracer trace.Tracer) *Client {
	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}

	if config.Temperature == 0 {
		config.Temperature = 0.1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		logger: logger.With("module", "date_oracle"),
		tracer: otelhelper.TracerOrNoop(tracer),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.config.APIKey != ""
}

func (c *Client) client() *openai.Client {
	c.once.Do(func() {
		if !c.Enabled() {
			c.logger.Warn("OPENAI_API_KEY not configured, date escalation disabled")

			return
		}

		clientConfig := openai.DefaultConfig(c.config.APIKey)
		if c.config.BaseURL != "" && c.config.BaseURL != defaultBaseURL {
			clientConfig.BaseURL = c.config.BaseURL
		}

		c.api = openai.NewClientWithConfig(clientConfig)

		c.logger.Info("Date oracle initialized", "model", c.config.Model)
	})

	return c.api
}

// ResolveDate asks the model to interpret text relative to now. The reply is
// validated against the agreed JSON shape; a reply with success=false is
// returned as-is for the caller to treat as a failure.
func (c *Client) ResolveDate(ctx context.Context, text string, now time.Time) (*DateReply, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "oracle.resolve_date",
		attribute.String(otelhelper.OracleModelKey, c.config.Model))
	defer span.End()

	api := c.client()
	if api == nil {
		return nil, ErrUnavailable
	}

	request := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(text, now)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	response, err := api.CreateChatCompletion(ctx, request)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("date oracle request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		otelhelper.SetError(span, ErrMalformedReply)

		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedReply)
	}

	reply, err := ParseReply(response.Choices[0].Message.Content)
	if err != nil {
		otelhelper.SetError(span, err)
		c.logger.WarnContext(ctx, "Date oracle returned an unusable reply", "error", err)

		return nil, err
	}

	span.SetAttributes(attribute.Bool("taskflow.oracle.success", reply.Success))

	return reply, nil
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(text string, now time.Time) string {
	var prompt strings.Builder

	prompt.WriteString("Parse the following natural language date/time expression and return ONLY a JSON object.\n\n")
	fmt.Fprintf(&prompt, "Current date/time: %s (use this as reference for relative dates)\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&prompt, "Date expression to parse: %q\n\n", text)
	prompt.WriteString(`Return a JSON object with these fields:
- "success": true if you can parse the date, false otherwise
- "year": the year (integer)
- "month": the month (1-12)
- "day": the day of month (1-31)
- "hour": the hour (0-23), default 23 if not specified
- "minute": the minute (0-59), default 59 if not specified
- "confidence": your confidence in the interpretation (0.0 to 1.0)
- "reasoning": brief explanation of your interpretation

Example: For "next Tuesday at 3pm" on 2026-01-29, return:
{"success": true, "year": 2026, "month": 2, "day": 3, "hour": 15, "minute": 0, "confidence": 0.9, "reasoning": "Next Tuesday from Jan 29 is Feb 3"}

Return ONLY valid JSON, no markdown or explanation outside the JSON.`)

	return prompt.String()
}

// ParseReply strips an optional markdown fence, then decodes and validates the model's answer.
func ParseReply(content string) (*DateReply, error) {
	body := stripFence(content)

	var document any

	err := json.Unmarshal([]byte(body), &document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(replySchema), gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrMalformedReply, strings.Join(problems, "; "))
	}

	var reply DateReply

	err = json.Unmarshal([]byte(body), &reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return &reply, nil
}

func stripFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}

	text = strings.TrimPrefix(parts[1], "json")

	return strings.TrimSpace(text)
}
