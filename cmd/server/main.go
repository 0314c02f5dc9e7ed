package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchalong/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	allowedOrigin = configVar[string]{
		envKey:       "SERVER_ALLOWED_ORIGIN",
		flagKey:      "allowed-origin",
		defaultValue: "*",
	}
	maxGuestsLimit = configVar[int]{
		envKey:       "SERVER_MAX_GUESTS_LIMIT",
		flagKey:      "max-guests-limit",
		defaultValue: 9,
	}
	youtubeApiKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
	}
	searchMaxResults = configVar[int]{
		envKey:       "SERVER_SEARCH_MAX_RESULTS",
		flagKey:      "search-max-results",
		defaultValue: 10,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	chatHistoryTtl = configVar[time.Duration]{
		envKey:       "SERVER_CHAT_HISTORY_TTL",
		flagKey:      "chat-history-ttl",
		defaultValue: 24 * time.Hour,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(allowedOrigin.flagKey, allowedOrigin.defaultValue, "Allowed CORS and websocket origin")
	pflag.Int(maxGuestsLimit.flagKey, maxGuestsLimit.defaultValue, "Maximum number of guests allowed per room")
	pflag.String(youtubeApiKey.flagKey, youtubeApiKey.defaultValue, "YouTube Data API key")
	pflag.Int(searchMaxResults.flagKey, searchMaxResults.defaultValue, "Maximum number of search results")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(chatHistoryTtl.flagKey, chatHistoryTtl.defaultValue, "Chat history retention")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(allowedOrigin.flagKey, allowedOrigin.envKey)
	viper.BindEnv(maxGuestsLimit.flagKey, maxGuestsLimit.envKey)
	viper.BindEnv(youtubeApiKey.flagKey, youtubeApiKey.envKey)
	viper.BindEnv(searchMaxResults.flagKey, searchMaxResults.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(chatHistoryTtl.flagKey, chatHistoryTtl.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(allowedOrigin.flagKey, allowedOrigin.defaultValue)
	viper.SetDefault(maxGuestsLimit.flagKey, maxGuestsLimit.defaultValue)
	viper.SetDefault(youtubeApiKey.flagKey, youtubeApiKey.defaultValue)
	viper.SetDefault(searchMaxResults.flagKey, searchMaxResults.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(chatHistoryTtl.flagKey, chatHistoryTtl.defaultValue)

	config := &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		AllowedOrigin:    viper.GetString(allowedOrigin.flagKey),
		MaxGuestsLimit:   viper.GetInt(maxGuestsLimit.flagKey),
		YoutubeApiKey:    viper.GetString(youtubeApiKey.flagKey),
		SearchMaxResults: viper.GetInt(searchMaxResults.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		ChatHistoryTtl:   viper.GetDuration(chatHistoryTtl.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
