// Package advice drafts protection tips from city aggregates with the OpenAI
// chat completions API.
package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/models"
)

const systemPrompt = "You write short public health advice about outdoor air quality. " +
	"Reply with one plain sentence under 25 words, no markup, no quotes."

// Advisor drafts recommendation text.
type Advisor struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewAdvisor returns an advisor for apiKey. Extra options are passed to the
// OpenAI client.
func NewAdvisor(apiKey string, logger *slog.Logger, opts ...option.RequestOption) (*Advisor, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Advisor{
		client: openai.NewClient(opts...),
		model:  openai.ChatModelGPT4oMini,
		logger: logger.With("component", "advice"),
	}, nil
}

// Prompt describes a city's averages for the model.
func Prompt(agg models.CityAggregate) string {
	category := airquality.Classify(agg.AvgPM25, airquality.PM25AlertThresholds)
	return fmt.Sprintf(
		"City: %s (%s). Average PM2.5 %.1f µg/m³ (%s), PM10 %.1f, CO %.2f, O3 %.1f, NO2 %.1f. "+
			"Quality index %.0f of 100. Suggest one thing residents should do today.",
		agg.City, agg.Country, agg.AvgPM25, category.Label(), agg.AvgPM10, agg.AvgCO, agg.AvgO3, agg.AvgNO2,
		agg.QualityIndex)
}

// Draft asks the model for a one-sentence tip for agg.
func (a *Advisor) Draft(ctx context.Context, agg models.CityAggregate) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(Prompt(agg)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion returned")
	}
	a.logger.Info("drafted recommendation", "city", agg.City, "chars", len(text))
	return text, nil
}
