package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
	"github.com/agroscan/agroscan-bot/internal/domain/port"
)

const testAPIKey = "test-api-key"

const resultJSON = `{
  "english": {"disease": "Leaf rust", "pesticide": "Propiconazole", "recommendation": "Spray 1 ml per litre of water"},
  "telugu": {"disease": "ఆకు తుప్పు", "pesticide": "ప్రోపికోనజోల్", "recommendation": "లీటరు నీటికి 1 మి.లీ. పిచికారీ చేయండి"}
}`

func candidateBody(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]string{{"text": text}}},
			"finishReason": "STOP",
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: testAPIKey, BaseURL: server.URL, Model: "test-model", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func jpeg() *entity.Image {
	return &entity.Image{Data: []byte{0xff, 0xd8, 0xff, 0xe0}, MIMEType: "image/jpeg", Name: "leaf.jpg"}
}

func requireKind(t *testing.T, err error, kind port.ErrorKind) *port.ServiceError {
	t.Helper()
	require.Error(t, err)
	var se *port.ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "unexpected kind for %v", err)
	return se
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	require.Error(t, cfg.Validate())

	cfg = Config{APIKey: testAPIKey}
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultModel, cfg.Model)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Config{APIKey: testAPIKey, BaseURL: "http://[::1]:namedport"})
	require.Error(t, err)
}

func TestClient_AnalyzeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, testAPIKey, r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateContentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Contents, 1) && assert.Len(t, req.Contents[0].Parts, 2) {
			inline := req.Contents[0].Parts[0].InlineData
			assert.Equal(t, "image/jpeg", inline.MimeType)
			assert.Equal(t, base64.StdEncoding.EncodeToString(jpeg().Data), inline.Data)
			assert.Equal(t, diagnosisPrompt, req.Contents[0].Parts[1].Text)
		}
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		assert.ElementsMatch(t, []string{"english", "telugu"}, req.GenerationConfig.ResponseSchema.Required)

		fmt.Fprint(w, candidateBody(resultJSON))
	})

	result, err := client.Analyze(context.Background(), jpeg())
	require.NoError(t, err)
	require.Equal(t, "Leaf rust", result.English.Disease)
	require.Equal(t, "Propiconazole", result.English.Pesticide)
	require.Equal(t, "ఆకు తుప్పు", result.Telugu.Disease)
	require.Equal(t, "లీటరు నీటికి 1 మి.లీ. పిచికారీ చేయండి", result.Telugu.Recommendation)
}

func TestClient_AnalyzeStripsCodeFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody("```json\n"+resultJSON+"\n```"))
	})

	result, err := client.Analyze(context.Background(), jpeg())
	require.NoError(t, err)
	require.Equal(t, "Leaf rust", result.English.Disease)
}

func TestClient_AnalyzeFailures(t *testing.T) {
	testCases := []struct {
		description string
		status      int
		body        string
		kind        port.ErrorKind
	}{
		{"api error is rejected", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, port.ErrKindRejected},
		{"server error is rejected", http.StatusInternalServerError, `internal`, port.ErrKindRejected},
		{"gateway timeout is timeout", http.StatusGatewayTimeout, `{}`, port.ErrKindTimeout},
		{"blocked prompt is rejected", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, port.ErrKindRejected},
		{"no candidates is malformed", http.StatusOK, `{"candidates":[]}`, port.ErrKindMalformed},
		{"non JSON body is malformed", http.StatusOK, `<html>`, port.ErrKindMalformed},
		{"empty text is malformed", http.StatusOK, candidateBody("   "), port.ErrKindMalformed},
		{"non JSON text is malformed", http.StatusOK, candidateBody("The leaf has rust."), port.ErrKindMalformed},
		{"missing language is malformed", http.StatusOK, candidateBody(`{"english":{"disease":"Rust","pesticide":"x","recommendation":"y"}}`), port.ErrKindMalformed},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				fmt.Fprint(w, testCase.body)
			})

			result, err := client.Analyze(context.Background(), jpeg())
			require.Nil(t, result)
			se := requireKind(t, err, testCase.kind)
			if testCase.status != http.StatusOK {
				require.Equal(t, testCase.status, se.StatusCode)
			}
		})
	}
}

func TestClient_AnalyzeAPIErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"Permission denied","status":"PERMISSION_DENIED"}}`)
	})

	_, err := client.Analyze(context.Background(), jpeg())
	se := requireKind(t, err, port.ErrKindRejected)
	require.Equal(t, "PERMISSION_DENIED: Permission denied", se.Message)
}

func TestClient_AnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Analyze(ctx, jpeg())
	requireKind(t, err, port.ErrKindTimeout)
}

func TestClient_AnalyzeNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(Config{APIKey: testAPIKey, BaseURL: server.URL})
	require.NoError(t, err)
	server.Close()

	_, err = client.Analyze(context.Background(), jpeg())
	requireKind(t, err, port.ErrKindNetwork)
}

func TestClient_AnalyzeRejectsUnsupportedImagesWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.Analyze(context.Background(), &entity.Image{Data: []byte("GIF89a"), MIMEType: "image/gif"})
	requireKind(t, err, port.ErrKindUnsupported)

	_, err = client.Analyze(context.Background(), &entity.Image{MIMEType: "image/jpeg"})
	requireKind(t, err, port.ErrKindUnsupported)

	_, err = client.Analyze(context.Background(), nil)
	requireKind(t, err, port.ErrKindUnsupported)

	require.Zero(t, calls.Load())
}

func TestStripFences(t *testing.T) {
	require.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	require.Equal(t, `{"a":1}`, stripFences(`  {"a":1}  `))
}
