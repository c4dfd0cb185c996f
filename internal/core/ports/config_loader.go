package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the kiln configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds kiln.yaml from the given working directory upwards and returns the parsed configuration.
	Load(cwd string) (*domain.Config, error)

	// DiscoverRoot walks up from cwd to find the directory containing kiln.yaml.
	DiscoverRoot(cwd string) (string, error)
}
