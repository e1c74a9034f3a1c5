package cli

import (
	"fmt"

	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/types"
)

// loadConfig resolves the effective gateway configuration for CLI commands
func loadConfig() (types.AppConfig, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return types.AppConfig{}, err
	}
	return configManager.GetConfig(), nil
}

// openBackend connects to the postgres store the gateway uses. Token and
// connection commands mutate durable state, so they refuse the in-memory
// store of a local-mode gateway; seeding that would be invisible to the
// running process anyway.
func openBackend() (repository.BackendRepository, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if config.IsLocalMode() || config.Database.Postgres.Host == "" {
		return nil, fmt.Errorf("this command needs the postgres backend; point --config at a remote-mode config")
	}

	return repository.NewPostgresBackend(config.Database.Postgres)
}
