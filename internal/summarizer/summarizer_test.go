package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

func TestBuildPrompt(t *testing.T) {
	if got := BuildPrompt("short"); got != "Summarize this document: short" {
		t.Errorf("BuildPrompt(short) = %q", got)
	}

	long := strings.Repeat("a", 1999) + "éxyz"
	got := BuildPrompt(long)
	want := "Summarize this document: " + strings.Repeat("a", 1999) + "é"
	if got != want {
		t.Errorf("BuildPrompt(long) kept %d bytes, want %d", len(got), len(want))
	}

	if got := BuildPrompt(""); got != "Summarize this document: " {
		t.Errorf("BuildPrompt(empty) = %q", got)
	}
}

func TestOllamaClientSummarize(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","response":"A short summary.","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", 5*time.Second)
	got, err := c.Summarize(context.Background(), "Summarize this document: hi")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "A short summary." {
		t.Errorf("Summarize() = %q", got)
	}
	if gotReq.Model != "llama3" || gotReq.Prompt != "Summarize this document: hi" || gotReq.Stream {
		t.Errorf("request body = %+v", gotReq)
	}
}

func TestOllamaClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}, time.Second},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, time.Second},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}, time.Second},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}, 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			c := NewOllamaClient(srv.URL, "llama3", tt.timeout)
			got, err := c.Summarize(context.Background(), "p")
			if !errors.Is(err, ErrAnalysisFailed) {
				t.Fatalf("Summarize() error = %v, want ErrAnalysisFailed", err)
			}
			if got != "" {
				t.Errorf("Summarize() = %q, want empty", got)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("server called %d times, want exactly 1", n)
			}
		})
	}
}

func TestOllamaClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOllamaClient(url, "llama3", time.Second)
	if _, err := c.Summarize(context.Background(), "p"); !errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("Summarize() error = %v, want ErrAnalysisFailed", err)
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Part one. "), genai.Text("Part two.\n")}},
		}},
	}
	if got := responseText(resp); got != "Part one. Part two." {
		t.Errorf("responseText() = %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("responseText(empty) = %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("responseText(nil) = %q", got)
	}
}
