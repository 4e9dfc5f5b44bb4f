package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAnthropicClient(Config{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func writeTextReply(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	require.NoError(t, err)
}

func TestClassifySendsImageAndInstructions(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0x00}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req messagesRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 1024, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)

		img := req.Messages[0].Content[0]
		assert.Equal(t, "image", img.Type)
		require.NotNil(t, img.Source)
		assert.Equal(t, "image/jpeg", img.Source.MediaType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), img.Source.Data)
		assert.Equal(t, Instructions(), req.Messages[0].Content[1].Text)

		writeTextReply(t, w, "```json\n"+fullReply+"\n```")
	})

	result, err := client.Classify(context.Background(), image, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 88, result.ManMadeConfidence)
	assert.Equal(t, "Amphora", *result.ObjectType)
}

func TestClassifyPropagatesHTTPErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	})

	_, err := client.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, 1, calls, "classifier must not retry")
}

func TestClassifyRequiresTextBlock(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	})

	_, err := client.Classify(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestClassifyRejectsMalformedReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeTextReply(t, w, "Sorry, I cannot help with that.")
	})

	_, err := client.Classify(context.Background(), []byte("img"), "image/png")
	assert.Error(t, err)
}

func TestClassifyHonorsContextCancellation(t *testing.T) {
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
	_, err := client.Classify(ctx, []byte("img"), "image/png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
