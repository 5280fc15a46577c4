package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Desktop  DesktopConfig
	Live     LiveConfig
	Models   ModelsConfig
}

// DatabaseConfig holds database configuration. The sqlite database always
// lives at Desktop.DataDir/db.sqlite; Path is its only setting.
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DesktopConfig holds the single-user, local-first layout described in
// spec §6.3/§6.4.
type DesktopConfig struct {
	Mode             string // "desktop" enables the local file layout
	DataDir          string
	BundledModelsDir string
	UploadsDir       string
}

// LiveConfig controls the live microphone / SSE surface (§4.5, §6.3).
type LiveConfig struct {
	TranscriptionEnabled bool
	MicEnabled           bool
	BatchOnly            bool
	ChunkSec             float64
	StrideSec            float64
	ForceLanguage        string
}

// ModelsConfig controls the transcription backend discovery (§4.1, §6.3).
type ModelsConfig struct {
	WhisperPort string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	dataDir := getEnv("TRANSCRIPTAI_DATA_DIR", defaultDataDir())

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "db.sqlite"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Desktop: DesktopConfig{
			Mode:             getEnv("TRANSCRIPTAI_MODE", "desktop"),
			DataDir:          dataDir,
			BundledModelsDir: getEnv("TRANSCRIPTAI_BUNDLED_MODELS_DIR", ""),
			UploadsDir:       getEnv("TRANSCRIPTAI_UPLOADS_DIR", filepath.Join(dataDir, "uploads")),
		},
		Live: LiveConfig{
			TranscriptionEnabled: getEnvBool("TRANSCRIPTAI_LIVE_TRANSCRIPTION", true),
			MicEnabled:           getEnvBool("TRANSCRIPTAI_LIVE_MIC", true),
			BatchOnly:            getEnvBool("TRANSCRIPTAI_LIVE_BATCH_ONLY", false),
			ChunkSec:             getEnvFloat("TRANSCRIPTAI_LIVE_CHUNK_SEC", 10.0),
			StrideSec:            getEnvFloat("TRANSCRIPTAI_LIVE_STRIDE_SEC", 2.0),
			ForceLanguage:        getEnv("TRANSCRIPTAI_FORCE_LANGUAGE", ""),
		},
		Models: ModelsConfig{
			WhisperPort: getEnv("WHISPER_CPP_PORT", ""),
		},
	}, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".transcriptai"
	}
	return filepath.Join(home, ".transcriptai")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets an environment variable as boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as a float64 or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
