package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// AdvisorConfig parameterizes the connection to an Ollama-compatible
// service.
type AdvisorConfig struct {
	// BaseURL is the service root, e.g. http://localhost:11434.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Model is the model name requested for analysis. When the service
	// does not offer it, the advisor falls back to the first available
	// model.
	Model string `yaml:"model" json:"model"`
	// Timeout bounds every request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultAdvisorConfig returns the standard local Ollama endpoint.
func DefaultAdvisorConfig() AdvisorConfig {
	return AdvisorConfig{
		BaseURL: "http://localhost:11434",
		Model:   "llama2",
		Timeout: 60 * time.Second,
	}
}

// Advisor is a minimal client for an Ollama-compatible generate endpoint.
// The service is opaque: the advisor sends the analysis payload as part of
// a prompt and returns the free-text answer unmodified.
type Advisor struct {
	config AdvisorConfig
	client *http.Client
	logger *logger.Logger
}

// NewAdvisor creates an advisor client. It performs no network calls; use
// CheckAvailability to probe the service.
func NewAdvisor(config AdvisorConfig, log *logger.Logger) *Advisor {
	if config.BaseURL == "" {
		config.BaseURL = DefaultAdvisorConfig().BaseURL
	}

	if config.Model == "" {
		config.Model = DefaultAdvisorConfig().Model
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultAdvisorConfig().Timeout
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Advisor{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log,
	}
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckAvailability probes the service's model list. When the configured
// model is not offered, the advisor switches to the first available model.
// It returns the available model names.
func (a *Advisor) CheckAvailability(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAdvisorUnavailable, "failed to build tags request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeAdvisorUnavailable, err,
			"advisor service unreachable at %s", a.config.BaseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeAdvisorUnavailable,
			"advisor service returned status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAdvisorUnavailable,
			"failed to decode model list", err)
	}

	models := make([]string, 0, len(tags.Models))
	for _, model := range tags.Models {
		models = append(models, model.Name)
	}

	if len(models) > 0 && !contains(models, a.config.Model) {
		a.logger.Warn("configured model not available, switching",
			zap.String("configured", a.config.Model),
			zap.String("fallback", models[0]),
		)
		a.config.Model = models[0]
	}

	return models, nil
}

// Model returns the model the advisor currently targets.
func (a *Advisor) Model() string {
	return a.config.Model
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Analyze submits the payload together with the question and returns the
// advisor's free-text answer.
func (a *Advisor) Analyze(ctx context.Context, payload AnalysisPayload, question string) (string, error) {
	if len(payload.Strategies) == 0 {
		return "", errors.New(errors.ErrCodeEmptyPayload,
			"analysis payload has no strategies")
	}

	prompt, err := buildPrompt(payload, question)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Model:  a.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.7,
			TopP:        0.9,
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAdvisorRequestFailed,
			"failed to encode generate request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAdvisorRequestFailed,
			"failed to build generate request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeAdvisorRequestFailed, err,
			"advisor request failed against %s", a.config.BaseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return "", errors.Newf(errors.ErrCodeAdvisorRequestFailed,
			"advisor returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", errors.Wrap(errors.ErrCodeAdvisorRequestFailed,
			"failed to decode advisor response", err)
	}

	return strings.TrimSpace(generated.Response), nil
}

// buildPrompt renders the payload into the analyst prompt.
func buildPrompt(payload AnalysisPayload, question string) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAdvisorRequestFailed,
			"failed to encode analysis payload", err)
	}

	return fmt.Sprintf(`You are a financial analyst specializing in algorithmic trading. Analyze the following trading results and answer the user's question.

TRADING RESULTS:
%s

USER QUESTION: %s

Please provide a detailed, professional analysis based on the data above. Focus on:
- Key performance metrics
- Risk analysis
- Strategy comparisons
- Actionable insights

ANSWER:`, string(data), question), nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}

	return false
}
