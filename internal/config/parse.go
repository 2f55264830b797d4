package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse parses YAML data into a Config struct.
// It returns an error if the YAML is malformed, contains unknown fields,
// or has type mismatches. Missing optional fields become zero values.
// Empty input returns a zero-value Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := strictUnmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// strictUnmarshal unmarshals YAML data into v, rejecting unknown fields.
// Empty input is treated as valid, leaving v at its zero value.
func strictUnmarshal(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}
	return nil
}

// Marshal marshals a Config struct to YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
