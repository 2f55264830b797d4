// Package config provides the termrelay configuration types. The
// configuration is a single YAML file loaded once at startup and never
// reloaded while the service runs.
package config

import "time"

// Backend kinds.
const (
	BackendLocal     = "local"
	BackendContainer = "container"
)

// Stderr policies.
const (
	// StderrMerge relays standard error interleaved with standard output.
	StderrMerge = "merge"
	// StderrDiscard drops standard error.
	StderrDiscard = "discard"
)

// Container runtimes.
const (
	RuntimeDocker     = "docker"
	RuntimeKubernetes = "kubernetes"
)

// DefaultGracePeriod is how long a terminated child gets to exit before it
// is killed.
const DefaultGracePeriod = 2 * time.Second

// Config represents the top-level termrelay configuration.
// It is typically stored at ~/.config/termrelay/config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Commands []CommandEntry `yaml:"commands,omitempty"`
	Deny     []string       `yaml:"deny,omitempty"`
	Backend  BackendConfig  `yaml:"backend,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// ServerConfig contains HTTP endpoint settings.
type ServerConfig struct {
	Listen          string   `yaml:"listen,omitempty"`
	Path            string   `yaml:"path,omitempty"`
	AllowedOrigins  []string `yaml:"allowed_origins,omitempty"`
	ShutdownTimeout string   `yaml:"shutdown_timeout,omitempty"`
}

// CommandEntry maps an external identifier to the invocation it runs.
// Exactly one of Run (a shell line) or Args (a literal argument vector)
// must be set.
type CommandEntry struct {
	Name string   `yaml:"name"`
	Run  string   `yaml:"run,omitempty"`
	Args []string `yaml:"args,omitempty"`
}

// BackendConfig selects and tunes the execution backend.
type BackendConfig struct {
	Kind        string          `yaml:"kind,omitempty"`
	Stderr      string          `yaml:"stderr,omitempty"`
	GracePeriod string          `yaml:"grace_period,omitempty"`
	Shell       string          `yaml:"shell,omitempty"`
	Workdir     string          `yaml:"workdir,omitempty"`
	Container   ContainerConfig `yaml:"container,omitempty"`
}

// ContainerConfig identifies the already-running container used by the
// container backend. Namespace, Container and Kubeconfig apply to the
// kubernetes runtime only; User applies to docker only.
type ContainerConfig struct {
	Runtime    string `yaml:"runtime,omitempty"`
	Name       string `yaml:"name,omitempty"`
	User       string `yaml:"user,omitempty"`
	Namespace  string `yaml:"namespace,omitempty"`
	Container  string `yaml:"container,omitempty"`
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
	Audit string `yaml:"audit,omitempty"`
}

// GraceDuration returns the parsed grace period, or DefaultGracePeriod when
// unset or invalid. Validate rejects invalid values before this is used.
func (b BackendConfig) GraceDuration() time.Duration {
	if b.GracePeriod == "" {
		return DefaultGracePeriod
	}
	d, err := time.ParseDuration(b.GracePeriod)
	if err != nil || d <= 0 {
		return DefaultGracePeriod
	}
	return d
}

// MergeStderr reports whether standard error is relayed.
func (b BackendConfig) MergeStderr() bool {
	return b.Stderr != StderrDiscard
}

// ShutdownDuration returns the parsed shutdown timeout (default 30s).
func (s ServerConfig) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
