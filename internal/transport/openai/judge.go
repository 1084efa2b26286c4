package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	"github.com/kailas-cloud/toolsage/internal/metrics"
)

// Judge defaults.
const (
	DefaultJudgeAttempts    = 2
	DefaultJudgeMaxFailures = 5
	DefaultJudgeOpenTimeout = 30 * time.Second
	defaultRetryDelay       = 250 * time.Millisecond
)

// Judge operations, used as metric labels.
const (
	opQuality  = "quality"
	opConcepts = "concepts"
	opRank     = "rank"
)

var errEmptyCompletion = errors.New("empty completion")

// JudgeConfig holds the chat model settings for the judge.
type JudgeConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxAttempts int
	Timeout     time.Duration // per attempt, 0 means the caller's deadline only
	MaxFailures uint32
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

// Judge is a domain.Judge backed by an OpenAI-compatible chat model in JSON mode.
// Calls go through a circuit breaker; a tripped breaker fails fast with ErrJudgeProviderError.
type Judge struct {
	client      *openai.Client
	model       string
	temperature float32
	maxAttempts int
	timeout     time.Duration
	retryDelay  time.Duration
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

var _ domain.Judge = (*Judge)(nil)

// NewJudge creates a judge client.
func NewJudge(cfg *JudgeConfig) *Judge {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultJudgeAttempts
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultJudgeMaxFailures
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultJudgeOpenTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "judge",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Judge{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxAttempts: attempts,
		timeout:     cfg.Timeout,
		retryDelay:  defaultRetryDelay,
		breaker:     breaker,
		logger:      logger,
	}
}

type qualityResponse struct {
	IsQualified bool    `json:"isQualified"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// CheckQuality asks whether content is specific, novel, reusable and clear enough to store.
func (j *Judge) CheckQuality(ctx context.Context, content, insightType string) (domain.QualityVerdict, error) {
	resp, err := complete[qualityResponse](ctx, j, opQuality, qualityPrompt(content, insightType))
	if err != nil {
		return domain.QualityVerdict{}, err
	}
	return domain.QualityVerdict{
		Qualified:  resp.IsQualified,
		Confidence: domain.Clamp01(resp.Confidence),
		Reason:     strings.TrimSpace(resp.Reason),
	}, nil
}

type conceptsResponse struct {
	Concepts []string `json:"concepts"`
}

// ExtractConcepts returns the key research concepts of a query.
func (j *Judge) ExtractConcepts(ctx context.Context, query string, recent []domain.Message) ([]string, error) {
	resp, err := complete[conceptsResponse](ctx, j, opConcepts, conceptsPrompt(query, recent))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Concepts))
	for _, c := range resp.Concepts {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

type rankingsResponse struct {
	Rankings []struct {
		Index          int      `json:"index"`
		RelevanceScore *float64 `json:"relevanceScore"`
		Relevance      *float64 `json:"relevance"`
		Reason         string   `json:"reason"`
	} `json:"rankings"`
}

// Rank scores candidates against the query and conversation context.
// Indices are returned as the model produced them; callers drop invalid ones.
func (j *Judge) Rank(
	ctx context.Context, query string, kctx domain.KnowledgeContext, items []domain.RankCandidate,
) ([]domain.Ranking, error) {
	if len(items) == 0 {
		return nil, nil
	}
	resp, err := complete[rankingsResponse](ctx, j, opRank, rankPrompt(query, kctx, items))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Ranking, 0, len(resp.Rankings))
	for _, r := range resp.Rankings {
		var score float64
		switch {
		case r.RelevanceScore != nil:
			score = *r.RelevanceScore
		case r.Relevance != nil:
			score = *r.Relevance
		}
		out = append(out, domain.Ranking{
			Index:     r.Index,
			Relevance: domain.Clamp01(score),
			Reason:    strings.TrimSpace(r.Reason),
		})
	}
	return out, nil
}

// HealthCheck reports an open breaker as unavailable.
func (j *Judge) HealthCheck(_ context.Context) error {
	if j.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("judge circuit breaker open: %w", domain.ErrJudgeProviderError)
	}
	return nil
}

// complete runs one JSON-mode chat completion and decodes it into a T.
// Transport failures and undecodable output are retried up to maxAttempts;
// each attempt decodes into a fresh value.
func complete[T any](ctx context.Context, j *Judge, op, prompt string) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= j.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("judge %s: %w: %w", op, ctx.Err(), domain.ErrJudgeProviderError)
			case <-time.After(j.retryDelay * time.Duration(attempt-1)):
			}
		}

		var out T
		_, err := j.breaker.Execute(func() (interface{}, error) {
			return nil, j.call(ctx, op, prompt, &out)
		})
		if err == nil {
			return out, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.JudgeRequestsTotal.WithLabelValues(op, "rejected").Inc()
			break
		}
		if ctx.Err() != nil {
			break
		}
		j.logger.Warn("Judge call failed",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return zero, parseJudgeError(op, lastErr)
}

func (j *Judge) call(ctx context.Context, op, prompt string, out any) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: j.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	metrics.JudgeRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.JudgeRequestsTotal.WithLabelValues(op, "error").Inc()
		return err
	}

	if resp.Usage.TotalTokens > 0 {
		metrics.JudgeTokensTotal.WithLabelValues(op).Add(float64(resp.Usage.TotalTokens))
		domain.UsageFromContext(ctx).AddJudge(resp.Usage.TotalTokens)
	}

	if len(resp.Choices) == 0 {
		metrics.JudgeRequestsTotal.WithLabelValues(op, "invalid").Inc()
		return errEmptyCompletion
	}
	body := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(body), out); err != nil {
		metrics.JudgeRequestsTotal.WithLabelValues(op, "invalid").Inc()
		return fmt.Errorf("decode judge output: %w", err)
	}

	metrics.JudgeRequestsTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseJudgeError(op string, err error) error {
	var wrap error = domain.ErrJudgeProviderError

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = fmt.Errorf("%w: %w", domain.ErrRateLimited, wrap)
		}
		return fmt.Errorf("judge %s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = fmt.Errorf("%w: %w", domain.ErrRateLimited, wrap)
		}
		return fmt.Errorf("judge %s API error %d: %w", op, reqErr.HTTPStatusCode, wrap)
	}

	return fmt.Errorf("judge %s: %v: %w", op, err, wrap)
}
