// Package config provides configuration management for pubgate.
// It handles loading and validating configuration from YAML/JSON files and
// environment variables. The loaded AppConfig is the single explicit
// source of state: the policy tree, the signing secret, the credential map
// and the thumbnail settings are all threaded from here into the
// components that need them.
package config

import "time"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Version is the configuration format version. The process refuses
	// to start on a version it does not understand.
	Version    int             `koanf:"version"`
	Server     ServerConfig    `koanf:"server"`
	Access     AccessConfig    `koanf:"access"`
	Log        LogConfig       `koanf:"log"`
	Store      StoreConfig     `koanf:"store"`
	Thumbnails ThumbnailConfig `koanf:"thumbnails"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr      string        `koanf:"listen_addr"`
	ExternalURL     string        `koanf:"external_url"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ObjectOpTimeout time.Duration `koanf:"object_op_timeout"`
}

// AccessConfig holds the access-control configuration: the signing secret
// for capability tokens, the basic-auth credential map and the policy tree.
type AccessConfig struct {
	SigningSecret string            `koanf:"signing_secret"`
	Realm         string            `koanf:"realm"`
	Users         map[string]string `koanf:"users"`
	Policy        []PolicyRule      `koanf:"policy"`
}

// PolicyRule is the configuration form of one policy tree node. Rules are
// kept as an ordered list because sibling order decides precedence.
type PolicyRule struct {
	Prefix   string       `koanf:"prefix"`
	Dirs     string       `koanf:"dirs"`
	Files    string       `koanf:"files"`
	Children []PolicyRule `koanf:"children"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreConfig holds object store configuration.
type StoreConfig struct {
	// Backend selects the object store implementation: "s3" or "localfs".
	Backend     string `koanf:"backend"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3Region    string `koanf:"s3_region"`
	S3Bucket    string `koanf:"s3_bucket"`
	// S3Endpoint points at a custom S3-compatible endpoint (e.g. MinIO);
	// when set, path-style addressing is forced.
	S3Endpoint string `koanf:"s3_endpoint"`
	// LocalRootPath is the directory served by the localfs backend.
	LocalRootPath string `koanf:"local_root_path"`
}

// ThumbnailConfig holds derived-artifact cache configuration.
type ThumbnailConfig struct {
	// Prefix is the dedicated namespace in the object store that holds
	// cached thumbnails.
	Prefix string `koanf:"prefix"`
	// MaxDimension bounds the longer edge of generated thumbnails.
	MaxDimension int `koanf:"max_dimension"`
	// Workers bounds the batch refresh worker pool.
	Workers int `koanf:"workers"`
	// ConvertTimeout bounds a single converter invocation.
	ConvertTimeout time.Duration `koanf:"convert_timeout"`
}
