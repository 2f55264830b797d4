package cmd

import (
	"context"
	"fmt"

	"github.com/xdg/termrelay/internal/backend"
	"github.com/xdg/termrelay/internal/config"
)

// buildBackend selects the execution backend once, at startup. The container
// backend resolves and checks its target here so a missing container fails
// the command before anything is served.
func buildBackend(ctx context.Context, cfg config.BackendConfig) (backend.Backend, error) {
	opts := backend.OptionsFromConfig(cfg)

	switch cfg.Kind {
	case "", config.BackendLocal:
		return backend.NewLocal(opts), nil

	case config.BackendContainer:
		switch cfg.Container.Runtime {
		case "", config.RuntimeDocker:
			rt, err := backend.NewDockerRuntime(ctx, cfg.Container, cfg.Workdir, opts.GracePeriod)
			if err != nil {
				return nil, backendError(err)
			}
			return backend.NewContainer(rt, opts), nil
		case config.RuntimeKubernetes:
			rt, err := backend.NewKubernetesRuntime(ctx, cfg.Container)
			if err != nil {
				return nil, backendError(err)
			}
			return backend.NewContainer(rt, opts), nil
		default:
			return nil, fmt.Errorf("backend.container.runtime: unknown runtime %q", cfg.Container.Runtime)
		}

	default:
		return nil, fmt.Errorf("backend.kind: unknown backend %q", cfg.Kind)
	}
}
