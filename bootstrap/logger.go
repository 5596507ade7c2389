package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/zlog"
)

const serviceName = "marketplace-relay"

func newLogger(env *Env) (*zap.Logger, error) {
	cfg := zlog.DefaultConfig(serviceName)

	if env.LogConfigPath != "" {
		loaded, err := zlog.LoadConfig(env.LogConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load log config: %w", err)
		}

		cfg = *loaded
	}

	if !env.IsProduction() && env.LogConfigPath == "" {
		cfg.Level = "debug"
		cfg.Encoding = "console"
	}

	return zlog.New(cfg, !env.IsProduction()), nil
}
