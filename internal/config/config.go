package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	GinMode string

	PostgresDSN string
	RedisAddr   string

	MongoURI      string
	MongoDatabase string

	CronSpec          string
	ArchiveDistricts  []string
	ArchiveCategories []string

	NewsDataAPIKey  string
	NewsDataBaseURL string
	GNewsAPIKey     string
	GNewsBaseURL    string
	GNewsMax        int
	HTTPTimeout     time.Duration
	EnrichImages    bool

	OllamaModel       string
	ClassifierTimeout time.Duration

	KafkaBroker string
	KafkaTopic  string

	BasicAuthUser  string
	BasicAuthPass  string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load 先尝试加载当前目录的 .env，已存在的环境变量优先
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: load .env: %v", err)
	}

	cfg := &Config{
		AppPort: getEnv("APP_PORT", "9000"),
		GinMode: getEnv("GIN_MODE", "release"),

		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=districtnews password=districtnews dbname=districtnews port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "districtnews"),

		CronSpec:          getEnv("CRON_SPEC", "0 */2 * * *"),
		ArchiveDistricts:  getEnvList("ARCHIVE_DISTRICTS", []string{"Karnataka", "Bengaluru Urban", "Mysuru"}),
		ArchiveCategories: getEnvList("ARCHIVE_CATEGORIES", []string{"Trending", "General"}),

		NewsDataAPIKey:  getEnv("NEWSDATA_API_KEY", ""),
		NewsDataBaseURL: getEnv("NEWSDATA_BASE_URL", "https://newsdata.io"),
		GNewsAPIKey:     getEnv("GNEWS_API_KEY", ""),
		GNewsBaseURL:    getEnv("GNEWS_BASE_URL", "https://gnews.io"),
		GNewsMax:        getEnvInt("GNEWS_MAX", 10),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		EnrichImages:    getEnvBool("ENRICH_IMAGES", false),

		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.2"),
		ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 60*time.Second),

		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "district-news"),

		BasicAuthUser:  getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:  getEnv("APP_BASIC_PASS", ""),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
	}

	log.Printf("config loaded: port=%s cron=%s model=%s kafka=%t targets=%dx%d",
		cfg.AppPort, cfg.CronSpec, cfg.OllamaModel, cfg.KafkaBroker != "",
		len(cfg.ArchiveDistricts), len(cfg.ArchiveCategories))
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("warn: %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("warn: %s=%q is not a number, using %g", key, v, def)
		return def
	}
	return f
}

// getEnvDuration 接受 "30s" 这类写法，也接受纯数字（秒）
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("warn: %s=%q is not a duration, using %s", key, v, def)
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// getEnvList 逗号分隔，忽略空项
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
