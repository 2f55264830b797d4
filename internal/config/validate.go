package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that a parsed Config contains valid values. It validates:
//   - server.listen is ":port" or "host:port" with port 1-65535
//   - server.path is absolute
//   - durations are parseable and positive
//   - every command has a unique, trimmed name and exactly one of run/args
//   - backend kind, stderr policy and container runtime are known values
//   - the container backend names its target container
//   - log.level is one of: debug, info, warn, error (if non-empty)
//
// Returns nil if the config is valid, or an error naming the invalid field.
func Validate(cfg *Config) error {
	if cfg.Server.Listen != "" {
		if err := validateListenAddr(cfg.Server.Listen, "server.listen"); err != nil {
			return err
		}
	}
	if cfg.Server.Path != "" && !strings.HasPrefix(cfg.Server.Path, "/") {
		return fmt.Errorf("server.path: must start with /, got %q", cfg.Server.Path)
	}
	if cfg.Server.ShutdownTimeout != "" {
		if err := validateDuration(cfg.Server.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
			return err
		}
	}

	if err := validateCommands(cfg.Commands); err != nil {
		return err
	}
	for i, tok := range cfg.Deny {
		if strings.TrimSpace(tok) == "" {
			return fmt.Errorf("deny[%d]: must not be blank", i)
		}
	}

	if err := validateBackend(&cfg.Backend); err != nil {
		return err
	}

	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

func validateCommands(cmds []CommandEntry) error {
	seen := make(map[string]bool, len(cmds))
	for i, c := range cmds {
		field := fmt.Sprintf("commands[%d]", i)
		if c.Name == "" {
			return fmt.Errorf("%s.name: required", field)
		}
		if strings.TrimSpace(c.Name) != c.Name {
			return fmt.Errorf("%s.name: %q has leading or trailing whitespace", field, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("%s.name: duplicate command %q", field, c.Name)
		}
		seen[c.Name] = true

		hasRun := strings.TrimSpace(c.Run) != ""
		hasArgs := len(c.Args) > 0
		switch {
		case hasRun && hasArgs:
			return fmt.Errorf("%s: set either run or args, not both", field)
		case !hasRun && !hasArgs:
			return fmt.Errorf("%s: one of run or args is required", field)
		case hasArgs && c.Args[0] == "":
			return fmt.Errorf("%s.args[0]: program must not be empty", field)
		}
	}
	return nil
}

func validateBackend(b *BackendConfig) error {
	switch b.Kind {
	case "", BackendLocal, BackendContainer:
	default:
		return fmt.Errorf("backend.kind: invalid value %q, must be one of: local, container", b.Kind)
	}
	switch b.Stderr {
	case "", StderrMerge, StderrDiscard:
	default:
		return fmt.Errorf("backend.stderr: invalid value %q, must be one of: merge, discard", b.Stderr)
	}
	if b.GracePeriod != "" {
		if err := validateDuration(b.GracePeriod, "backend.grace_period"); err != nil {
			return err
		}
	}

	switch b.Container.Runtime {
	case "", RuntimeDocker, RuntimeKubernetes:
	default:
		return fmt.Errorf("backend.container.runtime: invalid value %q, must be one of: docker, kubernetes", b.Container.Runtime)
	}
	if b.Kind == BackendContainer && b.Container.Name == "" {
		return fmt.Errorf("backend.container.name: required when backend.kind is container")
	}
	return nil
}

// validateListenAddr validates a listen address in the format ":port" or "host:port".
// Port must be in the range 1-65535.
func validateListenAddr(addr, field string) error {
	colonIdx := strings.LastIndex(addr, ":")
	if colonIdx == -1 {
		return fmt.Errorf("%s: invalid format %q, expected host:port or :port", field, addr)
	}

	portStr := addr[colonIdx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("%s: invalid port %q in %q", field, portStr, addr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s: invalid port number %d, must be 1-65535", field, port)
	}
	return nil
}

// validateDuration validates that a duration string parses to a positive duration.
func validateDuration(d, field string) error {
	parsed, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, d)
	}
	return nil
}
