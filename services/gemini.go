package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Fababum/portfolio/shared"
	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	ErrProviderNotConfigured = shared.ErrInternal("Server configuration error", nil)
	ErrProviderFailed        = shared.NewAppError(http.StatusBadGateway, shared.CodeUpstream, "Failed to get response from AI")
)

const (
	GEMINI_SVC = "gemini_svc"

	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	geminiRequestTimeout = 30 * time.Second
	geminiEmptyReply     = "No response"
	geminiErrorBodyLimit = 2048
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiService calls the generateContent endpoint behind a circuit breaker.
type GeminiService struct {
	appContext.DefaultService

	apiKey  string
	model   string
	baseURL string

	client *http.Client
	cb     *gobreaker.CircuitBreaker[string]
}

func (svc GeminiService) Id() string {
	return GEMINI_SVC
}

func NewGeminiService(apiKey, model, baseURL string, client *http.Client) *GeminiService {
	svc := &GeminiService{}
	svc.init(apiKey, model, baseURL, client)
	return svc
}

func (svc *GeminiService) init(apiKey, model, baseURL string, client *http.Client) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: geminiRequestTimeout}
	}

	svc.apiKey = apiKey
	svc.model = model
	svc.baseURL = strings.TrimRight(baseURL, "/")
	svc.client = client
	svc.cb = newProviderBreaker("gemini")
}

func (svc *GeminiService) Configure(ctx *appContext.Context) error {
	svc.init(os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"), os.Getenv("GEMINI_BASE_URL"), nil)
	return svc.DefaultService.Configure(ctx)
}

func (svc *GeminiService) Start() error {
	if svc.apiKey == "" {
		log.Warn("GEMINI_API_KEY is not set, chat requests will fail")
	}
	return nil
}

func newProviderBreaker(name string) *gobreaker.CircuitBreaker[string] {
	circuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			circuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// Generate sends message with systemPrompt as the system instruction and
// returns the first candidate's text.
func (svc *GeminiService) Generate(ctx context.Context, systemPrompt, message string) (string, error) {
	if svc.apiKey == "" {
		return "", ErrProviderNotConfigured
	}

	start := time.Now()
	text, err := svc.cb.Execute(func() (string, error) {
		return svc.generate(ctx, systemPrompt, message)
	})
	chatProviderDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.WithError(err).Warn("Gemini request rejected by circuit breaker")
		}
		if errors.Is(err, ErrProviderFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return text, nil
}

func (svc *GeminiService) generate(ctx context.Context, systemPrompt, message string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: message}}}},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	payload, err := shared.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", svc.baseURL, svc.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", svc.apiKey)

	resp, err := svc.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > geminiErrorBodyLimit {
			body = body[:geminiErrorBodyLimit]
		}
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Gemini API error")
		return "", fmt.Errorf("%w: status %d", ErrProviderFailed, resp.StatusCode)
	}

	var decoded geminiResponse
	if err := shared.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrProviderFailed, err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return geminiEmptyReply, nil
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return geminiEmptyReply, nil
	}
	return text, nil
}
