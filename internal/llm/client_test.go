package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
}

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name       string
		messages   []ChatMessage
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
	}{
		{
			name: "successful chat",
			messages: []ChatMessage{
				{Role: "system", Content: SystemPrompt},
				{Role: "user", Content: "What does s. 346.63 prohibit?"},
			},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req) // Ignore decode error in test
				if len(req.Messages) != 2 {
					t.Errorf("expected 2 messages, got %d", len(req.Messages))
				}
				if req.Messages[0].Role != "system" {
					t.Errorf("expected system message first, got %s", req.Messages[0].Role)
				}

				resp := ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Choices: []ChatChoice{
						{
							Index: 0,
							Message: ChatChoiceMessage{
								Role:    "assistant",
								Content: "It prohibits operating while intoxicated.",
							},
							FinishReason: "stop",
						},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: "It prohibits operating while intoxicated.",
			wantErr:   false,
		},
		{
			name:     "no choices returned",
			messages: []ChatMessage{{Role: "user", Content: "Hello"}},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := ChatResponse{
					ID:      "test-id",
					Object:  "chat.completion",
					Choices: []ChatChoice{},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name:     "server error",
			messages: []ChatMessage{{Role: "user", Content: "Hello"}},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			reply, err := client.Chat(context.Background(), tt.messages)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Chat() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Chat() unexpected error: %v", err)
				return
			}

			if reply != tt.wantReply {
				t.Errorf("Chat() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("expected /v1/models, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() unexpected error: %v", err)
	}

	server.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping() against a closed server should return error")
	}
}

func TestBuildPrompt(t *testing.T) {
	blocks := []ContextBlock{
		{
			SourceFile:    "346.pdf",
			DocType:       "statute",
			SectionNumber: "346.63",
			Text:          "346.63 Operating under influence of intoxicant.",
		},
		{
			SourceFile: "pursuit_policy.md",
			DocType:    "department_policy",
			Text:       "Officers shall not initiate pursuits for minor violations.",
		},
		{
			SourceFile:    "940.pdf",
			DocType:       "statute",
			SectionNumber: "940.01",
			Text:          "940.01 First-degree intentional homicide.",
			IsCrossRef:    true,
		},
	}

	got := BuildPrompt("When can I arrest for OWI?", blocks)

	if !strings.Contains(got, "[Source: 346.pdf | Type: statute | Section: 346.63]") {
		t.Errorf("BuildPrompt() missing statute header:\n%s", got)
	}
	if !strings.Contains(got, "[Source: pursuit_policy.md | Type: department_policy]") {
		t.Errorf("BuildPrompt() policy header should omit empty section:\n%s", got)
	}
	if !strings.Contains(got, "[Cross-Reference: 940.pdf | Section: 940.01]") {
		t.Errorf("BuildPrompt() missing cross-reference header:\n%s", got)
	}
	if !strings.HasSuffix(got, "Question: When can I arrest for OWI?") {
		t.Errorf("BuildPrompt() should end with the question:\n%s", got)
	}
}

func TestBuildPrompt_NoBlocks(t *testing.T) {
	got := BuildPrompt("anything", nil)
	if !strings.Contains(got, "Question: anything") {
		t.Errorf("BuildPrompt() missing question:\n%s", got)
	}
}
