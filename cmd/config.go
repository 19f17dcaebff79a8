package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Apps struct {
		LogLevel string `yaml:"log_level"`
		Rest     struct {
			Port      int `yaml:"port"`
			WorkItems struct {
				URL            string `yaml:"url"`
				AuthHeaderName string `yaml:"auth_header_name"`
				AuthToken      string `yaml:"auth_token"`
				CacheTTL       int64  `yaml:"cache_ttl"`
			} `yaml:"workitems"`
		} `yaml:"rest"`
	} `yaml:"apps"`
	Storage struct {
		Rooms struct {
			Type string `yaml:"type"`
		} `yaml:"rooms"`
		Sessions struct {
			Type string `yaml:"type"`
		} `yaml:"sessions"`
		Cache struct {
			Type string `yaml:"type"`
		} `yaml:"cache"`
	} `yaml:"storage"`
}

func ParseConfig(path string, logger *zap.Logger) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open config file", zap.Error(err))
		return nil, fmt.Errorf("error opening file %w", err)
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		logger.Error("Failed to decode config file", zap.Error(err))
		return nil, fmt.Errorf("error decoding file %w", err)
	}

	return &config, nil
}
