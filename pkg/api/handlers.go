package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/Willmo3/will-zip/pkg/compressor"
	"github.com/Willmo3/will-zip/pkg/vault"
)

// Server holds the API server state
type Server struct {
	vault   ArtifactVault
	codec   *compressor.Codec
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(artifactVault ArtifactVault, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		vault:   artifactVault,
		codec:   compressor.NewCodec(compressor.CodecConfig{CompactTable: config.CompactTable}),
		config:  config,
		metrics: metrics,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleCompress godoc
//
//	@Summary		Compress a byte stream
//	@Description	Compress the request body and return the artifact bytes
//	@Tags			codec
//	@Accept			octet-stream
//	@Produce		octet-stream
//	@Param			body	body		[]byte	true	"Bytes to compress"
//	@Success		200		{string}	byte
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/compress [post]
func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.metrics.RecordCodecOperation("compress", false, time.Since(start))
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	artifact := s.codec.Compress(body)

	s.metrics.RecordCodecOperation("compress", true, time.Since(start))
	s.metrics.RecordCodecBytes("compress", len(body), len(artifact))
	if len(body) > 0 {
		s.metrics.ObserveCompressionRatio(float64(len(artifact)) / float64(len(body)))
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(artifact); err != nil {
		sendError(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// handleDecompress godoc
//
//	@Summary		Decompress an artifact
//	@Description	Decode an artifact from the request body and return the original bytes
//	@Tags			codec
//	@Accept			octet-stream
//	@Produce		octet-stream
//	@Param			body	body		[]byte	true	"Artifact bytes"
//	@Success		200		{string}	byte
//	@Failure		400		{object}	APIResponse
//	@Failure		422		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/decompress [post]
func (s *Server) handleDecompress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.metrics.RecordCodecOperation("decompress", false, time.Since(start))
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	data, err := s.codec.Decompress(body)
	if err != nil {
		s.metrics.RecordCodecOperation("decompress", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to decompress: %v", err), decodeFailureStatus(err))
		return
	}

	s.metrics.RecordCodecOperation("decompress", true, time.Since(start))
	s.metrics.RecordCodecBytes("decompress", len(body), len(data))

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(data); err != nil {
		sendError(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// handleStoreArtifact godoc
//
//	@Summary		Store an artifact
//	@Description	Compress the request body and store the artifact in the vault
//	@Tags			artifacts
//	@Accept			octet-stream
//	@Produce		json
//	@Param			body	body		[]byte	true	"Bytes to compress and store"
//	@Success		200		{object}	vault.Info
//	@Failure		400		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/artifacts [post]
func (s *Server) handleStoreArtifact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.metrics.RecordVaultOperation("put", false, time.Since(start))
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	info, err := s.vault.Put(body)
	if err != nil {
		s.metrics.RecordVaultOperation("put", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to store artifact: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordVaultOperation("put", true, time.Since(start))
	if info.OriginalSize > 0 {
		s.metrics.ObserveCompressionRatio(info.Ratio)
	}
	sendSuccess(w, info)
}

// handleListArtifacts godoc
//
//	@Summary		List stored artifacts
//	@Description	List descriptions of every artifact in the vault
//	@Tags			artifacts
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/artifacts [get]
func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	infos, err := s.vault.List()
	if err != nil {
		s.metrics.RecordVaultOperation("list", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to list artifacts: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordVaultOperation("list", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{
		"artifacts": infos,
		"count":     len(infos),
	})
}

// handleFetchArtifact godoc
//
//	@Summary		Fetch an artifact
//	@Description	Decompress a stored artifact and return the original bytes. Use ?raw=true for the artifact bytes themselves.
//	@Tags			artifacts
//	@Produce		octet-stream
//	@Param			id	path		string	true	"Artifact ID"
//	@Param			raw	query		bool	false	"Return the stored artifact without decompressing"
//	@Success		200	{string}	byte
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/artifacts/{id} [get]
func (s *Server) handleFetchArtifact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid artifact ID", http.StatusBadRequest)
		return
	}

	raw := r.URL.Query().Get("raw") == "true"

	var data []byte
	if raw {
		data, err = s.vault.Raw(id)
	} else {
		data, err = s.vault.Get(id)
	}
	if err != nil {
		s.metrics.RecordVaultOperation("get", false, time.Since(start))
		if errors.Is(err, vault.ErrNotFound) {
			sendError(w, "Artifact not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to fetch artifact: %v", err), http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordVaultOperation("get", true, time.Since(start))

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(data); err != nil {
		sendError(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// handleArtifactInfo godoc
//
//	@Summary		Describe an artifact
//	@Description	Get sizes, symbol count and compression ratio of a stored artifact
//	@Tags			artifacts
//	@Produce		json
//	@Param			id	path		string	true	"Artifact ID"
//	@Success		200	{object}	vault.Info
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/artifacts/{id}/info [get]
func (s *Server) handleArtifactInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid artifact ID", http.StatusBadRequest)
		return
	}

	info, err := s.vault.Stat(id)
	if err != nil {
		s.metrics.RecordVaultOperation("stat", false, time.Since(start))
		if errors.Is(err, vault.ErrNotFound) {
			sendError(w, "Artifact not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to describe artifact: %v", err), http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordVaultOperation("stat", true, time.Since(start))
	sendSuccess(w, info)
}

// handleDeleteArtifact godoc
//
//	@Summary		Delete an artifact
//	@Description	Remove an artifact from the vault
//	@Tags			artifacts
//	@Produce		json
//	@Param			id	path		string	true	"Artifact ID"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/artifacts/{id} [delete]
func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid artifact ID", http.StatusBadRequest)
		return
	}

	if err := s.vault.Delete(id); err != nil {
		s.metrics.RecordVaultOperation("delete", false, time.Since(start))
		if errors.Is(err, vault.ErrNotFound) {
			sendError(w, "Artifact not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to delete artifact: %v", err), http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordVaultOperation("delete", true, time.Since(start))
	sendSuccess(w, map[string]string{"message": "Artifact deleted successfully"})
}

// decodeFailureStatus maps a decompress error to an HTTP status code.
// Malformed client input is a 422, anything else a 500.
func decodeFailureStatus(err error) int {
	if errors.Is(err, compressor.ErrCorruptTable) ||
		errors.Is(err, compressor.ErrTruncatedInput) ||
		errors.Is(err, compressor.ErrUnsupportedSize) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// startMetricsUpdater periodically refreshes vault occupancy metrics
func (s *Server) startMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		infos, err := s.vault.List()
		if err != nil {
			continue
		}
		var dataSize int64
		for _, info := range infos {
			dataSize += int64(info.CompressedSize)
		}
		s.metrics.UpdateVaultStats(len(infos), dataSize)
	}
}
