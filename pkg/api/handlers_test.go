package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/Willmo3/will-zip/pkg/bytestream"
	"github.com/Willmo3/will-zip/pkg/compressor"
	"github.com/Willmo3/will-zip/pkg/freqtable"
	"github.com/Willmo3/will-zip/pkg/vault"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	v, err := vault.Open(vault.VaultConfig{Path: t.TempDir()}, log)
	if err != nil {
		t.Fatalf("Failed to open vault: %v", err)
	}
	t.Cleanup(func() { v.Close() })

	// Fresh registry per server to avoid Prometheus registration conflicts
	metrics := NewMetricsWith(prometheus.NewRegistry())

	return NewServer(v, ServerConfig{APIKey: "test-key"}, metrics)
}

// storeTestArtifact stores data through the handler and returns the new ID
func storeTestArtifact(t *testing.T, server *Server, data []byte) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/v1/artifacts", bytes.NewReader(data))
	w := httptest.NewRecorder()

	server.handleStoreArtifact(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Failed to store artifact: status %d body %s", w.Code, w.Body.String())
	}

	return storedArtifactID(t, w)
}

// storedArtifactID extracts the artifact ID from a store response
func storedArtifactID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var response APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	info, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %T", response.Data)
	}

	id, ok := info["id"].(string)
	if !ok || id == "" {
		t.Fatalf("Expected artifact ID in response, got %v", info["id"])
	}

	return id
}

func TestServer_handleHealth(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !response.Success {
		t.Error("Expected success to be true")
	}

	if response.Data == nil {
		t.Error("Expected data to be present")
	}
}

func TestServer_handleCompress(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name string
		body []byte
	}{
		{
			name: "text body",
			body: []byte("huffman huffman huffman"),
		},
		{
			name: "binary body",
			body: []byte{0x00, 0xff, 0x00, 0xff, 0x10},
		},
		{
			name: "empty body",
			body: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/compress", bytes.NewReader(tt.body))
			w := httptest.NewRecorder()

			server.handleCompress(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			contentType := w.Header().Get("Content-Type")
			if contentType != "application/octet-stream" {
				t.Errorf("Expected Content-Type application/octet-stream, got %s", contentType)
			}

			restored, err := compressor.Decompress(w.Body.Bytes())
			if err != nil {
				t.Fatalf("Response did not decompress: %v", err)
			}
			if !bytes.Equal(restored, tt.body) {
				t.Errorf("Round trip mismatch: got %q, want %q", restored, tt.body)
			}
		})
	}
}

func TestServer_handleDecompress(t *testing.T) {
	server := setupTestServer(t)

	original := []byte("abracadabra abracadabra")
	artifact := compressor.Compress(original)

	tests := []struct {
		name           string
		body           []byte
		expectedStatus int
	}{
		{
			name:           "valid artifact",
			body:           artifact,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty body",
			body:           nil,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "garbage bytes",
			body:           bytes.Repeat([]byte{0xee}, 64),
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "truncated artifact",
			body:           artifact[:len(artifact)-1],
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "artifact declaring a near-max bit length",
			body: append(
				freqtable.Table{{Value: 'a', Count: 1}, {Value: 'b', Count: 1}}.ToStream(),
				bytestream.AppendLong(nil, ^uint64(0))...,
			),
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "artifact declaring an impossible count",
			body: append(
				append(
					freqtable.Table{{Value: 'A', Count: 1 << 63}}.ToStream(),
					bytestream.AppendLong(nil, 1)...,
				),
				0x01,
			),
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/decompress", bytes.NewReader(tt.body))
			w := httptest.NewRecorder()

			server.handleDecompress(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedStatus == http.StatusOK {
				if !bytes.Equal(w.Body.Bytes(), original) {
					t.Errorf("Expected original bytes back, got %q", w.Body.Bytes())
				}
				return
			}

			var response APIResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if response.Success {
				t.Error("Expected success to be false")
			}
			if response.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestServer_handleStoreArtifact(t *testing.T) {
	server := setupTestServer(t)

	body := []byte("a stream headed for the vault")

	req := httptest.NewRequest("POST", "/api/v1/artifacts", bytes.NewReader(body))
	w := httptest.NewRecorder()

	server.handleStoreArtifact(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	info, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %T", response.Data)
	}

	id, _ := info["id"].(string)
	if _, err := ksuid.Parse(id); err != nil {
		t.Errorf("Expected a parseable artifact ID, got %q: %v", id, err)
	}

	if got := info["original_size"]; got != float64(len(body)) {
		t.Errorf("Expected original_size %d, got %v", len(body), got)
	}

	if got, _ := info["compressed_size"].(float64); got <= 0 {
		t.Errorf("Expected positive compressed_size, got %v", info["compressed_size"])
	}
}

func TestServer_handleFetchArtifact(t *testing.T) {
	server := setupTestServer(t)

	body := []byte("fetch me later, fetch me twice")
	id := storeTestArtifact(t, server, body)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
		expectedBody   []byte
	}{
		{
			name:           "existing artifact",
			id:             id,
			expectedStatus: http.StatusOK,
			expectedBody:   body,
		},
		{
			name:           "unknown artifact",
			id:             ksuid.New().String(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid artifact ID",
			id:             "not-a-ksuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/artifacts/"+tt.id, nil)

			// Set up chi context for URL params
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			server.handleFetchArtifact(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedStatus == http.StatusOK {
				if !bytes.Equal(w.Body.Bytes(), tt.expectedBody) {
					t.Errorf("Expected body %q, got %q", tt.expectedBody, w.Body.Bytes())
				}

				contentType := w.Header().Get("Content-Type")
				if contentType != "application/octet-stream" {
					t.Errorf("Expected Content-Type application/octet-stream, got %s", contentType)
				}
			}
		})
	}
}

func TestServer_handleFetchArtifactRaw(t *testing.T) {
	server := setupTestServer(t)

	body := []byte("raw fetch returns the artifact itself")
	id := storeTestArtifact(t, server, body)

	req := httptest.NewRequest("GET", "/api/v1/artifacts/"+id+"?raw=true", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()

	server.handleFetchArtifact(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// The raw body is the stored artifact, not the original bytes
	restored, err := compressor.Decompress(w.Body.Bytes())
	if err != nil {
		t.Fatalf("Raw artifact did not decompress: %v", err)
	}
	if !bytes.Equal(restored, body) {
		t.Errorf("Expected artifact of %q, got one of %q", body, restored)
	}
}

func TestServer_handleArtifactInfo(t *testing.T) {
	server := setupTestServer(t)

	body := bytes.Repeat([]byte("a"), 100)
	id := storeTestArtifact(t, server, body)

	req := httptest.NewRequest("GET", "/api/v1/artifacts/"+id+"/info", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()

	server.handleArtifactInfo(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	info, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %T", response.Data)
	}

	if got := info["original_size"]; got != float64(100) {
		t.Errorf("Expected original_size 100, got %v", got)
	}
	if got := info["symbols"]; got != float64(1) {
		t.Errorf("Expected 1 symbol, got %v", got)
	}
	if got, _ := info["ratio"].(float64); got <= 0 || got >= 1 {
		t.Errorf("Expected a ratio inside (0, 1) for a skewed input, got %v", got)
	}
}

func TestServer_handleDeleteArtifact(t *testing.T) {
	server := setupTestServer(t)

	id := storeTestArtifact(t, server, []byte("delete me"))

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{
			name:           "existing artifact",
			id:             id,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "already deleted artifact",
			id:             id,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid artifact ID",
			id:             "not-a-ksuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/api/v1/artifacts/"+tt.id, nil)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			server.handleDeleteArtifact(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestServer_handleListArtifacts(t *testing.T) {
	server := setupTestServer(t)

	storeTestArtifact(t, server, []byte("first artifact"))
	storeTestArtifact(t, server, []byte("second artifact"))

	req := httptest.NewRequest("GET", "/api/v1/artifacts", nil)
	w := httptest.NewRecorder()

	server.handleListArtifacts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	data, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %T", response.Data)
	}

	if got := data["count"]; got != float64(2) {
		t.Errorf("Expected count 2, got %v", got)
	}

	artifacts, ok := data["artifacts"].([]interface{})
	if !ok {
		t.Fatalf("Expected artifacts array, got %T", data["artifacts"])
	}
	if len(artifacts) != 2 {
		t.Errorf("Expected 2 artifacts, got %d", len(artifacts))
	}
}
