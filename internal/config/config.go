package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 汇总进程级配置，全部来自环境变量（可选 .env 文件补充）
type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	CronSpec string

	ServerChanKey string

	OpenRouterKey   string
	OpenRouterModel string
	// OpenRouterForce 为 true 时所有条目都走外部翻译，不做中文检测
	OpenRouterForce bool
	MaxPromptChars  int

	NewsSourcesFile string
	LookbackHours   int
	MaxNewsItems    int

	GoogleServiceAccountJSON string
	GoogleCalendarID         string
}

// sensitiveEnvKeys 这些 key 只允许来自真实环境变量，禁止从 .env 文件带入
var sensitiveEnvKeys = map[string]struct{}{
	"SERVERCHAN_KEY":              {},
	"OPENROUTER_KEY":              {},
	"GOOGLE_SERVICE_ACCOUNT_JSON": {},
	"GOOGLE_CALENDAR_ID":          {},
}

func Load() *Config {
	loadEnvFile(getEnv("USEFUL_PUSH_ENV_FILE", ".env"))

	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "9000"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=usefulpush password=usefulpush dbname=usefulpush port=5432 sslmode=disable TimeZone=Asia/Shanghai"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		// 默认每天早上 7:30 推送一次
		CronSpec: getEnv("CRON_SPEC", "30 7 * * *"),

		ServerChanKey: os.Getenv("SERVERCHAN_KEY"),

		OpenRouterKey:   os.Getenv("OPENROUTER_KEY"),
		OpenRouterModel: getEnv("OPENROUTER_MODEL", "qwen/qwen3-235b-a22b:free"),
		OpenRouterForce: isTruthy(os.Getenv("OPENROUTER_ALWAYS")),
		MaxPromptChars:  getEnvInt("OPENROUTER_MAX_CHARS", 6000),

		NewsSourcesFile: getEnv("NEWS_SOURCES_FILE", "news_sources.json"),
		LookbackHours:   getEnvInt("NEWS_LOOKBACK_HOURS", 24),
		MaxNewsItems:    getEnvInt("MAX_NEWS_ITEMS", 20),

		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleCalendarID:         os.Getenv("GOOGLE_CALENDAR_ID"),
	}

	log.Printf("config loaded: port=%s cron=%s lookback=%dh", cfg.AppPort, cfg.CronSpec, cfg.LookbackHours)
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
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warn: env %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// loadEnvFile 读取 KEY=VALUE 形式的 env 文件；已存在的环境变量不会被覆盖，
// 敏感 key（推送与 API 凭证）一律跳过
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if _, sensitive := sensitiveEnvKeys[key]; sensitive {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		_ = os.Setenv(key, value)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("warn: read env file %s: %v", path, err)
	}
}

// Location 是展示用时区（东八区，无夏令时）
var Location *time.Location

func init() {
	Location, _ = time.LoadLocation("Asia/Shanghai")
	if Location == nil {
		Location = time.FixedZone("CST", 8*3600)
	}
}

// Now 返回东八区当前时间，方便后续做可测试封装
func Now() time.Time {
	return time.Now().In(Location)
}
