package config

import "os"

type Storage struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type Config struct {
	PostgresURI         string
	RedisURI            string
	BaseURL             string
	FrontendURL         string
	TwitterClientID     string
	TwitterClientSecret string
	MetaAppID           string
	MetaAppSecret       string
	CronSecret          string
	SecretKey           string
	CookieName          string
	Storage             Storage
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", "127.0.0.1:6379"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:3000"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		TwitterClientID:     getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		MetaAppID:           getEnv("META_APP_ID", ""),
		MetaAppSecret:       getEnv("META_APP_SECRET", ""),
		CronSecret:          getEnv("CRON_SECRET", ""),
		SecretKey:           getEnv("SECRET_KEY", ""),
		CookieName:          getEnv("COOKIE_NAME", "crosspost_session"),
		Storage: Storage{
			Endpoint:  getEnv("STORAGE_ENDPOINT", "http://localhost:9000"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "crosspost-media"),
			PublicURL: getEnv("STORAGE_PUBLIC_URL", "http://localhost:9000"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
