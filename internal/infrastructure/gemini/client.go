package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
	"github.com/agroscan/agroscan-bot/internal/domain/port"
)

const (
	serviceName = "gemini"

	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 60 * time.Second

	// maxErrorBody caps how much of an error response ends up in logs.
	maxErrorBody = 2048
)

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("gemini API key is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// Client diagnoses leaf photos through the Gemini generateContent API.
type Client struct {
	config     Config
	baseURL    *url.URL
	HTTPClient *http.Client
}

// NewClient creates a client from the config.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gemini base URL: %w", err)
	}

	log.WithField("model", cfg.Model).Infof("Gemini client initialized. Host: %s", baseURL.Host)

	return &Client{
		config:     cfg,
		baseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the model the client calls.
func (c *Client) Model() string {
	return c.config.Model
}

// Analyze sends the image with the diagnosis prompt and parses the bilingual answer.
func (c *Client) Analyze(ctx context.Context, image *entity.Image) (*entity.AnalysisResult, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, &port.ServiceError{Kind: port.ErrKindUnsupported, Service: serviceName, Message: "empty image"}
	}
	mimeType := strings.ToLower(image.MIMEType)
	if !entity.IsSupportedImageType(mimeType) {
		return nil, &port.ServiceError{Kind: port.ErrKindUnsupported, Service: serviceName, Message: fmt.Sprintf("unsupported image type %q", image.MIMEType)}
	}

	body, err := json.Marshal(c.buildRequest(mimeType, image.Data))
	if err != nil {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Service: serviceName, Message: "marshal request", Err: err}
	}

	endpoint := c.baseURL.JoinPath("v1beta", "models", c.config.Model+":generateContent")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &port.ServiceError{Kind: port.ErrKindNetwork, Service: serviceName, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, respBody)
	}

	return parseResponse(respBody)
}

func (c *Client) buildRequest(mimeType string, data []byte) *generateContentRequest {
	return &generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: diagnosisPrompt},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
			Temperature:      0.2,
		},
	}
}

func classifyTransportError(err error) *port.ServiceError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &port.ServiceError{Kind: port.ErrKindTimeout, Service: serviceName, Message: "request timed out", Err: err}
	}
	return &port.ServiceError{Kind: port.ErrKindNetwork, Service: serviceName, Message: "request failed", Err: err}
}

func handleErrorResponse(statusCode int, body []byte) *port.ServiceError {
	var apiErr errorResponse
	message := ""
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
		if apiErr.Error.Status != "" {
			message = apiErr.Error.Status + ": " + message
		}
	} else {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		message = strings.TrimSpace(string(body))
	}

	kind := port.ErrKindRejected
	if statusCode == http.StatusGatewayTimeout || statusCode == http.StatusRequestTimeout {
		kind = port.ErrKindTimeout
	}
	return &port.ServiceError{Kind: kind, Service: serviceName, StatusCode: statusCode, Message: message}
}

func parseResponse(body []byte) (*entity.AnalysisResult, error) {
	var gr generateContentResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Service: serviceName, Message: "decode response", Err: err}
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return nil, &port.ServiceError{Kind: port.ErrKindRejected, Service: serviceName, Message: "prompt blocked: " + gr.PromptFeedback.BlockReason}
	}
	if len(gr.Candidates) == 0 {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Service: serviceName, Message: "no candidates in response"}
	}

	cand := gr.Candidates[0]
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		text.WriteString(p.Text)
	}
	raw := stripFences(text.String())
	if raw == "" {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Service: serviceName, Message: "empty response text (finish reason " + cand.FinishReason + ")"}
	}

	var result entity.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Service: serviceName, Message: "decode analysis JSON", Err: err}
	}
	if err := result.Validate(); err != nil {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Service: serviceName, Message: "incomplete analysis", Err: err}
	}
	return &result, nil
}

var fenceRe = regexp.MustCompile("```[a-zA-Z]*\n?|```")

// stripFences removes markdown code fences such as ```json ... ``` so JSON can be parsed
func stripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

var _ port.ImageAnalyzer = (*Client)(nil)
