package service

import (
	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/model"
)

// providerVariant is one live provider in priority order.
type providerVariant struct {
	choice       model.ProviderChoice
	isConfigured func(cfg *config.VideoConfig) bool
}

var providerPriority = []providerVariant{
	{
		choice:       model.ProviderRunway,
		isConfigured: func(cfg *config.VideoConfig) bool { return cfg.RunwayAPIKey != "" },
	},
	{
		// Stability stays selectable even though its video endpoint is
		// unreliable; selection only looks at configuration.
		choice:       model.ProviderStability,
		isConfigured: func(cfg *config.VideoConfig) bool { return cfg.StabilityAPIKey != "" },
	},
}

// SelectProvider returns the first configured live provider, or Mock when
// mock mode is forced or nothing is configured. It performs no I/O.
func SelectProvider(cfg config.VideoConfig) model.ProviderChoice {
	if cfg.ForceMock {
		return model.ProviderMock
	}
	for _, v := range providerPriority {
		if v.isConfigured(&cfg) {
			return v.choice
		}
	}
	return model.ProviderMock
}
