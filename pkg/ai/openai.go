package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	scoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quizzer",
		Subsystem: "ai",
		Name:      "score_duration_seconds",
		Help:      "Duration of scorer requests",
	}, []string{"model"})

	scoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizzer",
		Subsystem: "ai",
		Name:      "score_failures_total",
		Help:      "Number of scorer failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI scorer.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIScorer implements Scorer against the OpenAI chat completion API.
type OpenAIScorer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIScorer builds a new scorer using the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	tracer := otel.Tracer("github.com/quizzerhq/quizzer-api/pkg/ai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIScorer{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Score sends the grading request to OpenAI and parses the response. A
// response that cannot be interpreted as {score, explanation} is an error,
// never a silent zero.
func (s *OpenAIScorer) Score(parent context.Context, req ScoreRequest) (ScoreResult, error) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "openai.score", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
		attribute.Int("question_number", req.QuestionNumber),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradingPrompt(req),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	scoreDuration.WithLabelValues(s.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		scoreFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreResult{}, fmt.Errorf("openai score: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		scoreFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := ParseScoreResponse(content)
	if err != nil {
		scoreFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreResult{}, err
	}

	return result, nil
}

func graderSystemPrompt() string {
	return "You are an impartial grader for a teacher. Grade the student's answer strictly according to the rubric. Word the " +
		"explanation as if you are speaking directly to the student. Respond with only a JSON object containing score and explanation."
}

func buildGradingPrompt(req ScoreRequest) string {
	builder := strings.Builder{}
	builder.WriteString("=== Test Context ===\n")
	builder.WriteString("Title: " + req.TestTitle + "\n")
	builder.WriteString("Description: " + req.TestDescription + "\n")
	builder.WriteString("Instructions: " + req.TestInstructions + "\n")
	builder.WriteString("\n=== Question ===\n")
	builder.WriteString(fmt.Sprintf("QuestionNumber: %d\n", req.QuestionNumber))
	builder.WriteString("Prompt: " + req.Prompt + "\n")
	builder.WriteString("\n=== Expected Answer ===\n")
	builder.WriteString(req.ExpectedAnswer + "\n")
	builder.WriteString("\n=== Grading Rubric ===\n")
	builder.WriteString(req.Rubric + "\n")
	builder.WriteString("\n=== Maximum Points ===\n")
	builder.WriteString(strconv.FormatFloat(req.MaxPoints, 'f', -1, 64) + "\n")
	builder.WriteString("\n=== Student Answer ===\n")
	builder.WriteString(req.StudentAnswer + "\n")
	builder.WriteString("\nReturn ONLY the following JSON with no commentary:\n")
	builder.WriteString(`{"score": "string", "explanation": "string"}`)
	return builder.String()
}

// flexibleScore accepts a JSON number or a numeric string. Scorer providers
// are inconsistent about which they return.
type flexibleScore float64

func (f *flexibleScore) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) >= 2 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("score %q is not numeric", raw)
		}
		*f = flexibleScore(parsed)
		return nil
	}

	var parsed float64
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("score is not numeric: %w", err)
	}
	*f = flexibleScore(parsed)
	return nil
}

// ParseScoreResponse validates the scorer payload shape. The provider gives
// no schema guarantee beyond parseability, so both fields are checked here.
func ParseScoreResponse(content string) (ScoreResult, error) {
	type payload struct {
		Score       *flexibleScore `json:"score"`
		Explanation string         `json:"explanation"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return ScoreResult{}, fmt.Errorf("parse score json: %w", err)
	}

	if data.Score == nil {
		return ScoreResult{}, fmt.Errorf("score missing from response")
	}

	score := float64(*data.Score)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return ScoreResult{}, fmt.Errorf("score %v is not a finite number", score)
	}

	return ScoreResult{
		Score:       score,
		Explanation: data.Explanation,
	}, nil
}
