package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Data    DataConfig
	Catalog CatalogConfig
	Workers WorkersConfig
}

type DataConfig struct {
	// Dir is the root under which datasets are downloaded and
	// extracted. Empty means the current working directory.
	Dir string
}

type CatalogConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type WorkersConfig struct {
	Download int
	Enrich   int
}

// Load reads the env file (missing files are fine, the environment
// still applies) and assembles the runtime configuration.
func Load(envFile string) (*Config, error) {
	godotenv.Load(envFile)

	return &Config{
		Data: DataConfig{
			Dir: getEnv("DATA_DIR", ""),
		},
		Catalog: CatalogConfig{
			Host:     getEnv("CATALOG_HOST", "127.0.0.1"),
			Port:     getEnvInt("CATALOG_PORT", 3306),
			User:     getEnv("CATALOG_USER", "root"),
			Password: getEnv("CATALOG_PASSWORD", ""),
			Name:     getEnv("CATALOG_NAME", "dataprep"),
		},
		Workers: WorkersConfig{
			Download: getEnvInt("DOWNLOAD_WORKERS", 4),
			Enrich:   getEnvInt("ENRICH_WORKERS", 8),
		},
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
