package api

//go:generate mockgen -destination=./mock_vault.go -package=api . ArtifactVault

import (
	"github.com/Willmo3/will-zip/pkg/vault"
	"github.com/segmentio/ksuid"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port         int
	Bind         string
	APIKey       string
	CompactTable bool // Store artifacts with the compact table encoding
}

// ArtifactVault defines the interface for the artifact store operations
type ArtifactVault interface {
	Put(data []byte) (*vault.Info, error)
	Get(id ksuid.KSUID) ([]byte, error)
	Raw(id ksuid.KSUID) ([]byte, error)
	Stat(id ksuid.KSUID) (*vault.Info, error)
	List() ([]*vault.Info, error)
	Delete(id ksuid.KSUID) error
}
