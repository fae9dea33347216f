package config

import "os"

type Config struct {
	AppEnv   string
	DataFile string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		DataFile: getEnv("BANK_DATA_FILE", "bank_data.json"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
