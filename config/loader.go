package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pubgate/pubgate/access"
)

// Load loads configuration from multiple sources with strict priority:
// 1. Environment variables with the PUBGATE_ prefix (highest priority)
// 2. The given config file (YAML or JSON)
// 3. Defaults (lowest priority)
func Load(configFilePath string) (AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return AppConfig{}, fmt.Errorf("config file %s not found: %w", configFilePath, err)
		}

		var parser koanf.Parser = yaml.Parser()
		if strings.HasSuffix(configFilePath, ".json") {
			parser = json.Parser()
		}

		if err := k.Load(file.Provider(configFilePath), parser); err != nil {
			return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	}

	if err := k.Load(env.Provider("PUBGATE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "PUBGATE_")), "_", ".", -1)
	}), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// PolicyTree converts the configured rules into the immutable tree the
// access package resolves against, preserving declaration order.
func (c *AccessConfig) PolicyTree() ([]access.PolicyNode, error) {
	return buildPolicyTree(c.Policy)
}

func buildPolicyTree(rules []PolicyRule) ([]access.PolicyNode, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	nodes := make([]access.PolicyNode, 0, len(rules))
	for _, rule := range rules {
		dirs, err := access.ParseLevel(rule.Dirs)
		if err != nil {
			return nil, fmt.Errorf("policy prefix %q dirs: %w", rule.Prefix, err)
		}
		files, err := access.ParseLevel(rule.Files)
		if err != nil {
			return nil, fmt.Errorf("policy prefix %q files: %w", rule.Prefix, err)
		}
		children, err := buildPolicyTree(rule.Children)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, access.PolicyNode{
			Prefix:   rule.Prefix,
			Dirs:     dirs,
			Files:    files,
			Children: children,
		})
	}
	return nodes, nil
}

// validateConfig validates that required configuration fields are set.
// Failures here are fatal: the process must not start on a config it
// cannot fully interpret.
func validateConfig(cfg *AppConfig) error {
	if cfg.Version != SupportedVersion {
		return fmt.Errorf("unsupported config version %d (this build supports %d)",
			cfg.Version, SupportedVersion)
	}

	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	switch cfg.Store.Backend {
	case "s3":
		if cfg.Store.S3Bucket == "" {
			return fmt.Errorf("store.s3_bucket is required for the s3 backend")
		}
	case "localfs":
		if cfg.Store.LocalRootPath == "" {
			return fmt.Errorf("store.local_root_path is required for the localfs backend")
		}
	default:
		return fmt.Errorf("unsupported store backend %q (must be s3 or localfs)", cfg.Store.Backend)
	}

	if cfg.Access.SigningSecret == "" || cfg.Access.SigningSecret == "change-me" {
		return fmt.Errorf("access.signing_secret must be set and not use a placeholder value")
	}

	if len(cfg.Access.Policy) == 0 {
		return fmt.Errorf("access.policy must contain at least one rule")
	}

	// Surface unknown auth levels at load time rather than at request time.
	if _, err := cfg.Access.PolicyTree(); err != nil {
		return err
	}

	if cfg.Thumbnails.MaxDimension <= 0 {
		return fmt.Errorf("thumbnails.max_dimension must be positive")
	}

	if cfg.Thumbnails.Workers <= 0 {
		return fmt.Errorf("thumbnails.workers must be positive")
	}

	return nil
}
