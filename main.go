package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"montana-id-verifier/flow"
	"montana-id-verifier/logging"
	"montana-id-verifier/redis"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	JwtPrivateKeyPath string `json:"jwt_private_key_path"`
	IssuerId          string `json:"issuer_id"`
	JwtValidityHours  int    `json:"jwt_validity_hours,omitempty"`

	GoogleClientId   string `json:"google_client_id,omitempty"`
	AdminIdentifier  string `json:"admin_identifier,omitempty"`
	AdminPassphrase  string `json:"admin_passphrase,omitempty"`
	LocationOptional bool   `json:"location_optional,omitempty"`

	WeatherBaseUrl   string  `json:"weather_base_url,omitempty"`
	WeatherLatitude  float64 `json:"weather_latitude,omitempty"`
	WeatherLongitude float64 `json:"weather_longitude,omitempty"`
	SeedlingFeedUrl  string  `json:"seedling_feed_url,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	StorageType         string                    `json:"storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`
}

// Banjarbaru, South Kalimantan. Used when the config gives no coordinates.
const defaultWeatherLatitude = -3.44
const defaultWeatherLongitude = 114.83
const defaultWeatherBaseUrl = "https://api.open-meteo.com"

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		slog.Error("please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		slog.Error("failed to read config file", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logging.InitLogger(config.LogLevel, config.LogFormat == "json")
	slog.Info("using config", "path", *configPath)
	slog.Info("hosting on", "host", config.ServerConfig.Host, "port", config.ServerConfig.Port)

	validity := time.Duration(config.JwtValidityHours) * time.Hour
	if validity == 0 {
		validity = 24 * time.Hour
	}

	jwtCreator, err := NewIdentityJwtCreator(
		config.JwtPrivateKeyPath,
		config.IssuerId,
		validity,
	)
	if err != nil {
		slog.Error("failed to instantiate jwt creator", "error", err)
		os.Exit(1)
	}

	sessionStore, err := createSessionStore(&config)
	if err != nil {
		slog.Error("failed to instantiate session store", "error", err)
		os.Exit(1)
	}

	credentials := flow.DefaultCredentials()
	if config.AdminIdentifier != "" && config.AdminPassphrase != "" {
		credentials = flow.Credentials{
			AdminID:    config.AdminIdentifier,
			Passphrase: config.AdminPassphrase,
		}
	}

	weatherBase := config.WeatherBaseUrl
	if weatherBase == "" {
		weatherBase = defaultWeatherBaseUrl
	}
	latitude, longitude := config.WeatherLatitude, config.WeatherLongitude
	if latitude == 0 && longitude == 0 {
		latitude, longitude = defaultWeatherLatitude, defaultWeatherLongitude
	}

	serverState := ServerState{
		jwtCreator:      jwtCreator,
		sessionStore:    sessionStore,
		registry:        NewFlowRegistry(),
		tokenVerifier:   NewGoogleTokenVerifier(config.GoogleClientId),
		weather:         NewOpenMeteoClient(weatherBase, latitude, longitude),
		seedlings:       NewSheetSeedlingClient(config.SeedlingFeedUrl),
		flowPolicy:      flow.Policy{RequireLocation: !config.LocationOptional},
		flowCredentials: credentials,
		flowTimings:     flow.DefaultTimings(),
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	err = server.ListenAndServe()
	if err != nil {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func createSessionStore(config *Config) (SessionStore, error) {
	if config.StorageType == "redis" {
		slog.Info("Using redis session store")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisSessionStore(client, config.RedisConfig.Namespace), nil
	}
	if config.StorageType == "redis_sentinel" {
		slog.Info("Using redis sentinel session store")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisSessionStore(client, config.RedisSentinelConfig.Namespace), nil
	}
	if config.StorageType == "memory" {
		slog.Info("Using in memory session store")
		return NewInMemorySessionStore(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
