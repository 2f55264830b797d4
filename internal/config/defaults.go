package config

// Default returns a Config with all defaults populated.
//
// The default vocabulary is deliberately tiny: a bounded ping and the
// sorting visualiser. Anything else has to be added to the config file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8000",
			Path:            "/api/terminal",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: "30s",
		},
		Commands: []CommandEntry{
			{Name: "ping", Run: "ping -c 5 8.8.8.8"},
			{Name: "visualise", Args: []string{"python3", "visualiser.py", "1"}},
		},
		Deny: []string{
			"rm", "sudo", "su", "shutdown", "reboot", "halt", "poweroff",
			"mkfs", "dd", "kill", "killall",
		},
		Backend: BackendConfig{
			Kind:        BackendLocal,
			Stderr:      StderrMerge,
			GracePeriod: "2s",
			Shell:       "/bin/sh",
			Container: ContainerConfig{
				Runtime:   RuntimeDocker,
				Name:      "tty-user-container",
				Namespace: "default",
			},
		},
		Log: LogConfig{
			File:  "~/.local/state/termrelay/termrelay.log",
			Level: "info",
		},
	}
}

// applyDefaults fills unset scalar settings from Default. The command
// vocabulary and deny-list are never defaulted for a config that exists:
// an empty allow-list in a written file means nothing may run.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = def.Server.Listen
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = def.Server.Path
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}

	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = def.Backend.Kind
	}
	if cfg.Backend.Stderr == "" {
		cfg.Backend.Stderr = def.Backend.Stderr
	}
	if cfg.Backend.GracePeriod == "" {
		cfg.Backend.GracePeriod = def.Backend.GracePeriod
	}
	if cfg.Backend.Shell == "" {
		cfg.Backend.Shell = def.Backend.Shell
	}
	if cfg.Backend.Container.Runtime == "" {
		cfg.Backend.Container.Runtime = def.Backend.Container.Runtime
	}
	if cfg.Backend.Container.Namespace == "" {
		cfg.Backend.Container.Namespace = def.Backend.Container.Namespace
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// defaultConfigTemplate is written by WriteDefault. It mirrors Default with
// comments for every setting.
const defaultConfigTemplate = `# termrelay configuration
# Loaded once at startup; restart the service after editing.

server:
  # Address the HTTP endpoint listens on.
  listen: ":8000"
  # Path of the streaming command endpoint.
  path: /api/terminal
  # Origins allowed by CORS. "*" allows any origin.
  allowed_origins: ["*"]
  shutdown_timeout: 30s

# Closed vocabulary of runnable commands. Only these identifiers can run.
# Use "run" for a shell line or "args" for a literal argument vector.
commands:
  - name: ping
    run: ping -c 5 8.8.8.8
  - name: visualise
    args: [python3, visualiser.py, "1"]

# Tokens that are never allowed, even in allow-listed commands.
deny: [rm, sudo, su, shutdown, reboot, halt, poweroff, mkfs, dd, kill, killall]

backend:
  # local runs commands as subprocesses; container execs into a running container.
  kind: local
  # merge relays stderr with stdout; discard drops it.
  stderr: merge
  # How long a terminated command gets before it is killed.
  grace_period: 2s
  # Shell used for pipelines and other compound command lines.
  shell: /bin/sh
  container:
    # docker or kubernetes
    runtime: docker
    # Container name (docker) or pod name (kubernetes).
    name: tty-user-container
    namespace: default

log:
  file: ~/.local/state/termrelay/termrelay.log
  level: info
  # audit: ~/.local/state/termrelay/audit.log
`
