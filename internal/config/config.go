package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	LlamaAPIKey        string
	LlamaAPIURL        string
	LlamaModel         string
	DatabaseURL        string
	StoreDriver        string // "sqlite" or "memory"
	HTTPPort           string
	LogLevel           string
	ClassroomID        string
	SimulationInterval int // seconds between mock roster refreshes
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		LlamaAPIKey:        getEnv("LLAMA_API_KEY", ""),
		LlamaAPIURL:        getEnv("LLAMA_API_URL", "https://api.llama.com/v1/chat/completions"),
		LlamaModel:         getEnv("LLAMA_MODEL", "Llama-4-Maverick-17B-128E-Instruct-FP8"),
		DatabaseURL:        getEnv("DATABASE_URL", "sussi.db"),
		StoreDriver:        getEnv("STORE_DRIVER", "sqlite"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		ClassroomID:        getEnv("CLASSROOM_ID", "1"),
		SimulationInterval: getEnvAsInt("SIMULATION_INTERVAL_SECONDS", 10),
	}

	if AppConfig.LlamaAPIKey == "" {
		log.Fatal("LLAMA_API_KEY environment variable is required")
	}

	if AppConfig.StoreDriver != "sqlite" && AppConfig.StoreDriver != "memory" {
		log.Fatalf("STORE_DRIVER must be 'sqlite' or 'memory', got %q", AppConfig.StoreDriver)
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
