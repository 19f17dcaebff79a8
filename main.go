package main

import (
	"flag"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zavahq/pokeroom/cmd"
	"github.com/zavahq/pokeroom/internal/rest"
	"github.com/zavahq/pokeroom/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	flag.Parse()

	bootstrapLogger, _ := zap.NewDevelopment()

	config, err := cmd.ParseConfig(*configPath, bootstrapLogger)
	if err != nil {
		bootstrapLogger.Fatal("Failed to parse config", zap.Error(err))
	}

	level, err := zapcore.ParseLevel(config.Apps.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	logger, err := utils.NewCustomLogger(level, false)
	if err != nil {
		bootstrapLogger.Fatal("Failed to create logger", zap.Error(err))
	}
	defer logger.Sync()

	restApp := rest.NewRest(&rest.Config{
		Port:                    config.Apps.Rest.Port,
		RoomsStorageType:        config.Storage.Rooms.Type,
		SessionsStorageType:     config.Storage.Sessions.Type,
		CacheType:               config.Storage.Cache.Type,
		CacheTTL:                config.Apps.Rest.WorkItems.CacheTTL,
		WorkItemsURL:            config.Apps.Rest.WorkItems.URL,
		WorkItemsAuthHeaderName: config.Apps.Rest.WorkItems.AuthHeaderName,
		WorkItemsAuthToken:      config.Apps.Rest.WorkItems.AuthToken,
		Logger:                  logger,
	})

	appsManager := cmd.NewAppsManager(logger)

	appsManager.Register(cmd.RestApp, restApp)
	appsManager.RunAll()
	appsManager.WaitForShutdown()
}
