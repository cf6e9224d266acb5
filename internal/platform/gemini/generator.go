package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// summaryLines is how long, in lines, a video summary should be.
const summaryLines = 1

// contentGenerator is the slice of the genai client the generator uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Summarizer and generation.QuizGenerator.
type Generator struct {
	logger  *slog.Logger
	config  config.LLMConfig
	models  contentGenerator
	limiter *rate.Limiter
	backoff time.Duration
}

var (
	_ generation.Summarizer    = (*Generator)(nil)
	_ generation.QuizGenerator = (*Generator)(nil)
)

// NewGenerator creates a Generator backed by the Gemini API.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, models contentGenerator) (*Generator, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("%w: requests per minute must be positive", generation.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries cannot be negative", generation.ErrInvalidConfig)
	}

	return &Generator{
		logger:  logger.With(slog.String("component", "gemini")),
		config:  cfg,
		models:  models,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		backoff: time.Second,
	}, nil
}

// Summarize implements generation.Summarizer. The watch URL of the video is
// sent to the model as file data alongside the text prompt.
func (g *Generator) Summarize(ctx context.Context, videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", ErrEmptyVideoID
	}

	prompt, err := summaryPrompt(summaryLines)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{FileData: &genai.FileData{
				FileURI:  domain.VideoWatchURL(videoID),
				MIMEType: "video/mp4",
			}},
		},
	}}

	text, err := g.generate(ctx, "summary", contents, nil)
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateQuiz implements generation.QuizGenerator.
func (g *Generator) GenerateQuiz(ctx context.Context, text string, count int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyQuizText
	}
	if count <= 0 {
		return "", domain.ErrInvalidQuizSize
	}

	prompt, err := quizPrompt(text, count)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	}}

	return g.generate(ctx, "quiz", contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
}

// generate makes one logical model call. Transport failures are retried
// with exponential backoff up to MaxRetries times; blocked or empty answers
// are returned immediately.
func (g *Generator) generate(
	ctx context.Context,
	kind string,
	contents []*genai.Content,
	genConfig *genai.GenerateContentConfig,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger).With(slog.String("request_kind", kind))

	if g.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.CallTimeout)
		defer cancel()
	}

	backoff := retry.WithMaxRetries(uint64(g.config.MaxRetries),
		retry.WithJitterPercent(20, retry.NewExponential(g.backoff)))

	var text string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}

		log.DebugContext(ctx, "calling Gemini", "attempt", attempt, "model", g.config.ModelName)
		resp, err := g.models.GenerateContent(ctx, g.config.ModelName, contents, genConfig)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
			}
			log.WarnContext(ctx, "Gemini call failed", "attempt", attempt, "error", err)
			if !isTransient(err) {
				return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
			}
			return retry.RetryableError(fmt.Errorf("%w: %v", generation.ErrTransientFailure, err))
		}

		text, err = extractText(resp)
		return err
	})
	if err != nil {
		log.ErrorContext(ctx, "Gemini request failed", "attempts", attempt, "error", err)
		return "", err
	}

	log.InfoContext(ctx, "Gemini request succeeded", "attempts", attempt, "response_length", len(text))
	return text, nil
}

// isTransient reports whether an API failure may succeed on retry. Client
// errors other than rate limiting are permanent; anything else, including
// network failures without a status, is retried.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", generation.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: candidate has no content", generation.ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text parts", generation.ErrEmptyResponse)
	}
	return text, nil
}
