package environments

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CallAPI   CallAPIConfig
	Scheduler SchedulerConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CallAPIConfig struct {
	URL     string
	Timeout time.Duration
}

type SchedulerConfig struct {
	DispatchInterval time.Duration
	PollInterval     time.Duration
}

type AuthConfig struct {
	SchedulerAPIKey string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "3000"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "scheduler"),
			Password: GetEnv("DB_PASSWORD", "scheduler123"),
			DBName:   GetEnv("DB_NAME", "call_scheduler"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		CallAPI: CallAPIConfig{
			URL:     GetEnv("CALL_API_URL", "http://localhost:5000"),
			Timeout: time.Duration(GetEnvAsInt("CALL_API_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			DispatchInterval: time.Duration(GetEnvAsInt("DISPATCH_INTERVAL_SECONDS", 30)) * time.Second,
			PollInterval:     time.Duration(GetEnvAsInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		},
		Auth: AuthConfig{
			SchedulerAPIKey: GetEnv("SCHEDULER_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
