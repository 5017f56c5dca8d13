package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"object":"list","data":[{"id":"qwen2.5:0.5b"},{"id":"llama3"}]}`))
		case "/v1/chat/completions":
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			require.Len(t, req.Messages, 2)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status != http.StatusOK {
				w.Write([]byte(`{"error":{"message":"model not found"}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCorrectText(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "  Привет, мир.  ")
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/v1", Model: "test-model"}, nil)

	got, err := c.CorrectText(context.Background(), "привет мир")
	require.NoError(t, err)
	assert.Equal(t, "Привет, мир.", got)
}

func TestCorrectTextKeepsOriginalOnError(t *testing.T) {
	srv := chatServer(t, http.StatusNotFound, "")
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/v1", Model: "test-model"}, nil)

	got, err := c.CorrectText(context.Background(), "привет мир")
	assert.Error(t, err)
	assert.Equal(t, "привет мир", got)
}

func TestCorrectTextKeepsOriginalOnEmptyAnswer(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "   ")
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/v1", Model: "test-model"}, nil)

	got, err := c.CorrectText(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, "hello", got)
}

func TestCorrectTextSkipsBlank(t *testing.T) {
	c := New(Config{URL: "http://127.0.0.1:1", Timeout: time.Millisecond}, nil)

	got, err := c.CorrectText(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}

func TestListModels(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "")
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/v1/"}, nil)

	list, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen2.5:0.5b", "llama3"}, list)
	assert.True(t, c.IsAvailable(context.Background()))
	assert.Equal(t, DefaultModel, c.Model())
}
