package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/syncroom/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	configFile = configVar[string]{
		envKey:       "SERVER_CONFIG",
		flagKey:      "config",
		defaultValue: "",
		usage:        "Path to a config file (yaml, json or toml)",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 3000,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	cleanupDelay = configVar[time.Duration]{
		envKey:       "SERVER_CLEANUP_DELAY",
		flagKey:      "cleanup-delay",
		defaultValue: 60 * time.Second,
		usage:        "How long an empty room is kept before it is removed",
	}
	settleDelay = configVar[time.Duration]{
		envKey:       "SERVER_SETTLE_DELAY",
		flagKey:      "settle-delay",
		defaultValue: 1500 * time.Millisecond,
		usage:        "Delay between sending a video and its playback state",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host; the room mirror is off when empty",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	redisDB = configVar[int]{
		envKey:       "REDIS_DB",
		flagKey:      "redis-db",
		defaultValue: 0,
		usage:        "Redis database",
	}
	redisTTL = configVar[time.Duration]{
		envKey:       "REDIS_TTL",
		flagKey:      "redis-ttl",
		defaultValue: 24 * time.Hour,
		usage:        "Expiry of mirrored rooms",
	}
)

func bind[T any](v *viper.Viper, cv configVar[T]) {
	v.BindEnv(cv.flagKey, cv.envKey)
	v.SetDefault(cv.flagKey, cv.defaultValue)
}

func loadAppConfig() (*app.AppConfig, error) {
	pflag.String(configFile.flagKey, configFile.defaultValue, configFile.usage)
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.Duration(cleanupDelay.flagKey, cleanupDelay.defaultValue, cleanupDelay.usage)
	pflag.Duration(settleDelay.flagKey, settleDelay.defaultValue, settleDelay.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, redisDB.usage)
	pflag.Duration(redisTTL.flagKey, redisTTL.defaultValue, redisTTL.usage)
	pflag.Parse()

	v := viper.New()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	bind(v, configFile)
	bind(v, port)
	bind(v, host)
	bind(v, logLevel)
	bind(v, cleanupDelay)
	bind(v, settleDelay)
	bind(v, redisHost)
	bind(v, redisPort)
	bind(v, redisPassword)
	bind(v, redisDB)
	bind(v, redisTTL)

	if path := v.GetString(configFile.flagKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return &app.AppConfig{
		Host:          v.GetString(host.flagKey),
		Port:          v.GetInt(port.flagKey),
		LogLevel:      v.GetString(logLevel.flagKey),
		CleanupDelay:  v.GetDuration(cleanupDelay.flagKey),
		SettleDelay:   v.GetDuration(settleDelay.flagKey),
		RedisHost:     v.GetString(redisHost.flagKey),
		RedisPort:     v.GetInt(redisPort.flagKey),
		RedisPassword: v.GetString(redisPassword.flagKey),
		RedisDB:       v.GetInt(redisDB.flagKey),
		RedisTTL:      v.GetDuration(redisTTL.flagKey),
	}, nil
}

func main() {
	ctx := context.Background()

	appConfig, err := loadAppConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
