package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8081", "test-key", "granite-embedding-278m-multilingual", 768)
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.Model != "granite-embedding-278m-multilingual" {
		t.Errorf("Model = %v, want granite-embedding-278m-multilingual", client.Model)
	}
	if client.ExpectedSize != 768 {
		t.Errorf("ExpectedSize = %v, want 768", client.ExpectedSize)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	chunkTexts := []string{
		"346.63 Operating under influence of intoxicant.",
		"940.19 Battery; aggravated battery.",
	}

	tests := []struct {
		name       string
		texts      []string
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantErr    bool
		wantCount  int
	}{
		{
			name:  "chunk batch embedded",
			texts: chunkTexts,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req EmbeddingsRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if len(req.Input) != 2 || req.Input[0] != chunkTexts[0] {
					t.Errorf("request input = %v, want the chunk texts", req.Input)
				}

				resp := EmbeddingsResponse{
					Data: []EmbeddingData{
						{Embedding: make([]float64, 768)},
						{Embedding: make([]float64, 768)},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantCount: 2,
		},
		{
			name:  "empty input rejected",
			texts: []string{},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called for empty input")
			},
			wantErr: true,
		},
		{
			name:  "embedding count mismatch",
			texts: chunkTexts,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := EmbeddingsResponse{
					Data: []EmbeddingData{{Embedding: make([]float64, 768)}},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name:  "vector size mismatch",
			texts: chunkTexts[:1],
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := EmbeddingsResponse{
					Data: []EmbeddingData{{Embedding: make([]float64, 384)}},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name:  "server error",
			texts: chunkTexts[:1],
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("model not loaded"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "granite-embedding-278m-multilingual", 768)
			embeddings, err := client.EmbedTexts(context.Background(), tt.texts)

			if tt.wantErr {
				if err == nil {
					t.Error("EmbedTexts() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("EmbedTexts() unexpected error: %v", err)
			}

			if len(embeddings) != tt.wantCount {
				t.Errorf("EmbedTexts() returned %d embeddings, want %d", len(embeddings), tt.wantCount)
			}
			for i, emb := range embeddings {
				if len(emb) != 768 {
					t.Errorf("embedding[%d] size = %d, want 768", i, len(emb))
				}
			}
		})
	}
}

func TestEmbeddingsClient_EmbedTexts_ValueConversion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := EmbeddingsResponse{
			Data: []EmbeddingData{
				{Embedding: []float64{0.25, -0.5, 1.0}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "granite-embedding-278m-multilingual", 3)
	embeddings, err := client.EmbedTexts(context.Background(), []string{"346.63 Operating under influence."})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(embeddings) != 1 {
		t.Fatalf("EmbedTexts() returned %d embeddings, want 1", len(embeddings))
	}

	want := []float32{0.25, -0.5, 1.0}
	for i, v := range want {
		if embeddings[0][i] != v {
			t.Errorf("embedding[0][%d] = %v, want %v", i, embeddings[0][i], v)
		}
	}
}
