package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Movement   MovementConfig
	Visibility VisibilityConfig
	Combat     CombatConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MovementConfig holds defaults for the movement tracker
type MovementConfig struct {
	MaxPoints        float64 // per-floor maximum movement points
	RegenRatePerHour float64 // points regenerated per elapsed hour
	StartPolicy      string  // "equal" or "random"
}

// VisibilityConfig holds fog-of-war defaults; floors may override them
type VisibilityConfig struct {
	Range            int  // hops from the current node treated as adjacent
	RevealStartNodes bool // start points are at least minimally visible
	RevealBossNodes  bool // boss rooms are at least minimally visible
}

// CombatConfig holds encounter coordinator settings
type CombatConfig struct {
	AutoTurnCap int // safety cap on consecutively auto-processed monster turns
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnvOrDefault("LISTEN_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Movement: MovementConfig{
			MaxPoints:        getEnvAsFloatOrDefault("MOVEMENT_MAX_POINTS", 10),
			RegenRatePerHour: getEnvAsFloatOrDefault("MOVEMENT_REGEN_PER_HOUR", 2),
			StartPolicy:      getEnvOrDefault("MOVEMENT_START_POLICY", "equal"),
		},
		Visibility: VisibilityConfig{
			Range:            getEnvAsIntOrDefault("VISIBILITY_RANGE", 1),
			RevealStartNodes: getEnvAsBoolOrDefault("VISIBILITY_REVEAL_START", true),
			RevealBossNodes:  getEnvAsBoolOrDefault("VISIBILITY_REVEAL_BOSS", true),
		},
		Combat: CombatConfig{
			AutoTurnCap: getEnvAsIntOrDefault("COMBAT_AUTO_TURN_CAP", 100),
		},
	}

	if cfg.Movement.StartPolicy != "equal" && cfg.Movement.StartPolicy != "random" {
		return nil, fmt.Errorf("MOVEMENT_START_POLICY must be \"equal\" or \"random\", got %q", cfg.Movement.StartPolicy)
	}
	if cfg.Visibility.Range < 1 {
		return nil, fmt.Errorf("VISIBILITY_RANGE must be at least 1")
	}
	if cfg.Combat.AutoTurnCap < 1 {
		return nil, fmt.Errorf("COMBAT_AUTO_TURN_CAP must be at least 1")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
