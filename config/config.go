package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	MongoURI     string
	JWTSecret    string
	ClientOrigin string

	Storage StorageConfig
}

type StorageConfig struct {
	// Backend selects where uploads live: "disk" (default) or "minio".
	Backend string

	UploadDir    string
	AssetBaseURL string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Load reads configuration from the environment. A .env file is loaded
// first if present so local runs don't need exported variables.
func Load() Config {
	godotenv.Load()

	return Config{
		Port:         getEnv("PORT", "8080"),
		MongoURI:     getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "disk"),
			UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
			AssetBaseURL:   getEnv("ASSET_BASE_URL", ""),
			MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinioBucket:    getEnv("MINIO_BUCKET", "quill-uploads"),
			MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
