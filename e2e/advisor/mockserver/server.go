// Package mockserver provides a mock Ollama server for testing.
// It implements the tags and generate endpoints the advisor client uses.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// MockOllamaServer provides a mock Ollama-compatible server for testing.
type MockOllamaServer struct {
	mu sync.RWMutex

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	// State management
	models         []string
	response       string
	generateStatus int
	tagsStatus     int
	prompts        []string
	requestModels  []string
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Models is the model list served by the tags endpoint.
	Models []string
	// Response is the canned answer the generate endpoint returns.
	Response string
}

// NewMockOllamaServer creates a new mock Ollama server.
func NewMockOllamaServer(config ServerConfig) *MockOllamaServer {
	models := config.Models
	if len(models) == 0 {
		models = []string{"llama2"}
	}

	response := config.Response
	if response == "" {
		response = "The mean reversion strategy shows the best risk-adjusted returns."
	}

	return &MockOllamaServer{
		mu:             sync.RWMutex{},
		httpServer:     nil,
		listener:       nil,
		models:         models,
		response:       response,
		generateStatus: http.StatusOK,
		tagsStatus:     http.StatusOK,
		prompts:        make([]string, 0),
		requestModels:  make([]string, 0),
	}
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockOllamaServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/tags", s.handleTags).Methods("GET")
	router.HandleFunc("/api/generate", s.handleGenerate).Methods("POST")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockOllamaServer) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockOllamaServer) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockOllamaServer) BaseURL() string {
	return "http://" + s.Address()
}

// SetModels replaces the served model list.
func (s *MockOllamaServer) SetModels(models []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = models
}

// SetResponse replaces the canned generate answer.
func (s *MockOllamaServer) SetResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = response
}

// SetGenerateStatus makes the generate endpoint return the given status.
func (s *MockOllamaServer) SetGenerateStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateStatus = status
}

// SetTagsStatus makes the tags endpoint return the given status.
func (s *MockOllamaServer) SetTagsStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagsStatus = status
}

// Prompts returns every prompt the generate endpoint received.
func (s *MockOllamaServer) Prompts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, len(s.prompts))
	copy(result, s.prompts)
	return result
}

// RequestedModels returns the model of every generate request received.
func (s *MockOllamaServer) RequestedModels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, len(s.requestModels))
	copy(result, s.requestModels)
	return result
}

// handleTags handles GET /api/tags
func (s *MockOllamaServer) handleTags(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tagsStatus != http.StatusOK {
		http.Error(w, "tags unavailable", s.tagsStatus)
		return
	}

	type modelEntry struct {
		Name string `json:"name"`
	}

	models := make([]modelEntry, 0, len(s.models))
	for _, name := range s.models {
		models = append(models, modelEntry{Name: name})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models": models,
	})
}

// handleGenerate handles POST /api/generate
func (s *MockOllamaServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream bool   `json:"stream"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, request.Prompt)
	s.requestModels = append(s.requestModels, request.Model)
	status := s.generateStatus
	response := s.response
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, "model runner failed", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"model":    request.Model,
		"response": response,
		"done":     true,
	})
}
