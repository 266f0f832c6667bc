package config

import "time"

// SupportedVersion is the configuration format version this build accepts.
const SupportedVersion = 1

// DefaultAppConfig returns an AppConfig struct with sensible default values.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Version: SupportedVersion,
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ExternalURL:     "http://localhost:8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ObjectOpTimeout: 10 * time.Second,
		},
		Access: AccessConfig{
			Realm: "pubgate",
			Users: map[string]string{},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Backend:  "s3",
			S3Region: "us-east-1",
		},
		Thumbnails: ThumbnailConfig{
			Prefix:         ".thumbnails/",
			MaxDimension:   256,
			Workers:        4,
			ConvertTimeout: 60 * time.Second,
		},
	}
}
