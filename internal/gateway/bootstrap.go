package gateway

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/pkg/platform"
	"go.uber.org/zap"
)

// Bootstrap builds every enabled provider and registers it with service.
// Invalid or failing providers are logged and skipped; the number of
// registered platforms is returned.
func Bootstrap(ctx context.Context, service Service, providers []platform.ProviderConfig, log *zap.Logger) int {
	registered := 0
	validate := validator.New()

	for _, pCfg := range providers {
		if ctx.Err() != nil {
			break
		}
		if !pCfg.Enabled {
			continue
		}

		if err := validate.Struct(&pCfg); err != nil {
			log.Warn(fmt.Sprintf("%s %s %s",
				cli.WarningSign(),
				cli.Style(pCfg.ID, cli.Bold),
				cli.Style("skipping provider with invalid configuration", cli.Yellow),
			), zap.Error(err))
			continue
		}

		provider, err := platform.Build(pCfg)
		if err != nil {
			log.Error("Failed to initialize provider",
				zap.String("id", pCfg.ID),
				zap.String("type", pCfg.Type),
				zap.Error(err),
			)
			continue
		}

		p := platform.New(provider, platform.WithLogger(log))
		if err := service.Register(pCfg.ID, p); err != nil {
			log.Error("Failed to register provider", zap.String("id", pCfg.ID), zap.Error(err))
			continue
		}

		log.Info(fmt.Sprintf("%s %s", cli.CheckMark(), pCfg.ID),
			zap.String("type", pCfg.Type),
			zap.Int("models", len(p.Models())),
		)
		registered++
	}

	if registered == 0 {
		log.Warn("No providers were registered. Set provider credentials or add a providers section to config.yaml.")
	}

	return registered
}
