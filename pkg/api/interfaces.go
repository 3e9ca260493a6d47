// Package api provides interfaces for dependency injection
package api

import "github.com/sirupsen/logrus"

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer starts the API server with the given configuration
	StartServer(artifactVault ArtifactVault, config ServerConfig, log *logrus.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
