package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Redis   RedisConfig   `yaml:"redis"`
	Grading GradingConfig `yaml:"grading"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Course  CourseConfig  `yaml:"course"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` //nolint:gosec // config struct, not hardcoded cred
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	GradingTopic string   `yaml:"grading_topic"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	ReportTTL time.Duration `yaml:"report_ttl"`
}

type GradingConfig struct {
	// ResourceLimit is the utilization fraction (0-1) at which the
	// monitor reports overload; both CPU and memory must reach it.
	ResourceLimit  float64 `yaml:"resource_limit"`
	SubmissionsDir string  `yaml:"submissions_dir"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type CourseConfig struct {
	EmailDomain string `yaml:"email_domain"`
}

func Load() (*Config, error) {
	configPath := getConfigPath()

	var cfg Config
	data, err := os.ReadFile(configPath) //nolint:gosec // config path from env
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	setDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	possiblePaths := []string{
		"config/config.yaml",
		"/etc/course-service/config.yaml",
		"./config.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "config.yaml"
}

func setDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8003"
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 10 << 20 // 10 MB
	}

	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}

	if cfg.Kafka.GradingTopic == "" {
		cfg.Kafka.GradingTopic = "grading-events"
	}

	if cfg.Redis.ReportTTL == 0 {
		cfg.Redis.ReportTTL = 30 * time.Second
	}

	if cfg.Grading.ResourceLimit == 0 {
		cfg.Grading.ResourceLimit = 0.2
	}
	if cfg.Grading.SubmissionsDir == "" {
		cfg.Grading.SubmissionsDir = "data/assignment_submissions"
	}

	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = "llama3.2:latest"
	}

	if cfg.Course.EmailDomain == "" {
		cfg.Course.EmailDomain = "kwansei.ac.jp"
	}
}

func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		cfg.HTTP.Address = val
	}

	if val := os.Getenv("DB_HOST"); val != "" {
		cfg.DB.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.DB.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		cfg.DB.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		cfg.DB.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		cfg.DB.DBName = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		cfg.DB.SSLMode = val
	}

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		cfg.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("KAFKA_GRADING_TOPIC"); val != "" {
		cfg.Kafka.GradingTopic = val
	}

	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
	}

	if val := os.Getenv("GRADING_RESOURCE_LIMIT"); val != "" {
		if limit, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Grading.ResourceLimit = limit
		}
	}
	if val := os.Getenv("SUBMISSIONS_DIR"); val != "" {
		cfg.Grading.SubmissionsDir = val
	}

	if val := os.Getenv("OLLAMA_BASE_URL"); val != "" {
		cfg.Ollama.BaseURL = val
	}
	if val := os.Getenv("OLLAMA_MODEL"); val != "" {
		cfg.Ollama.Model = val
	}

	if val := os.Getenv("EMAIL_DOMAIN"); val != "" {
		cfg.Course.EmailDomain = val
	}
}

func validateConfig(cfg *Config) error {
	if cfg.HTTP.Address == "" {
		return fmt.Errorf("HTTP address must be set")
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.DBName == "" {
		return fmt.Errorf("database configuration is incomplete")
	}

	if cfg.Grading.ResourceLimit < 0 || cfg.Grading.ResourceLimit > 1 {
		return fmt.Errorf("grading resource limit must be a fraction between 0 and 1")
	}

	return nil
}
