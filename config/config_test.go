package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{"returns env value when set", "TEST_KEY", "default", "env_value", "env_value"},
		{"returns default when not set", "NONEXISTENT_KEY", "default", "", "default"},
		{"returns default when env is empty", "EMPTY_KEY", "default", "", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}
			result := GetEnvOrDefault(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		expected     bool
	}{
		{"returns true for 'true'", "BOOL_KEY", false, "true", true},
		{"returns true for '1'", "BOOL_KEY", false, "1", true},
		{"returns true for 'yes'", "BOOL_KEY", false, "yes", true},
		{"returns false for 'false'", "BOOL_KEY", true, "false", false},
		{"returns false for '0'", "BOOL_KEY", true, "0", false},
		{"returns false for 'no'", "BOOL_KEY", true, "no", false},
		{"returns default for invalid", "BOOL_KEY", true, "invalid", true},
		{"returns default when not set", "NONEXISTENT_BOOL", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}
			result := GetEnvAsBool(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		expected     int
	}{
		{"returns int value", "INT_KEY", 10, "42", 42},
		{"returns default for invalid", "INT_KEY", 10, "invalid", 10},
		{"returns default when not set", "NONEXISTENT_INT", 99, "", 99},
		{"handles negative numbers", "INT_KEY", 0, "-5", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}
			result := GetEnvAsInt(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsStringSlice(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue []string
		envValue     string
		expected     []string
	}{
		{"returns slice from comma-separated", "SLICE_KEY", []string{"default"}, "a,b,c", []string{"a", "b", "c"}},
		{"trims whitespace", "SLICE_KEY", []string{}, "a, b , c", []string{"a", "b", "c"}},
		{"returns default when not set", "NONEXISTENT_SLICE", []string{"x", "y"}, "", []string{"x", "y"}},
		{"handles single value", "SLICE_KEY", []string{}, "single", []string{"single"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}
			result := GetEnvAsStringSlice(tt.key, tt.defaultValue)
			if len(result) != len(tt.expected) {
				t.Errorf("expected length %d, got %d", len(tt.expected), len(result))
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, result)
					return
				}
			}
		})
	}
}

// The server port must follow the deployment contract: PORT when set and
// non-empty, 8000 otherwise.
func TestLoadConfigPortResolution(t *testing.T) {
	originalPort, hadPort := os.LookupEnv("PORT")
	defer func() {
		if hadPort {
			os.Setenv("PORT", originalPort)
		} else {
			os.Unsetenv("PORT")
		}
	}()

	tests := []struct {
		name     string
		setPort  bool
		envValue string
		expected string
	}{
		{"defaults to 8000 when unset", false, "", "8000"},
		{"defaults to 8000 when empty", true, "", "8000"},
		{"uses PORT when set", true, "9090", "9090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setPort {
				os.Setenv("PORT", tt.envValue)
			} else {
				os.Unsetenv("PORT")
			}
			cfg := LoadConfig()
			if cfg.Port != tt.expected {
				t.Errorf("expected port %s, got %s", tt.expected, cfg.Port)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"JWT_SECRET", "DATABASE_URL", "JWT_EXPIRATION_MINUTES", "FISCAL_YEAR", "APP_ENV"} {
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	if cfg.JWTExpiration != 480*time.Minute {
		t.Errorf("expected 8h JWT expiration, got %v", cfg.JWTExpiration)
	}
	if cfg.FiscalYear != 2026 {
		t.Errorf("expected fiscal year 2026, got %d", cfg.FiscalYear)
	}
	if !strings.Contains(cfg.DatabaseURL, "dashboard_inei") {
		t.Errorf("expected local default database URL, got %s", cfg.DatabaseURL)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected development environment, got %s", cfg.Environment)
	}
}

func TestNormalizeRedisAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"handles plain host:port", "localhost:6379", "localhost:6379"},
		{"extracts host from redis URL", "redis://localhost:6379", "localhost:6379"},
		{"extracts host with auth", "redis://:password@localhost:6379", "localhost:6379"},
		{"handles empty string", "", ""},
		{"handles invalid URL gracefully", "not a url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeRedisAddress(tt.input)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestResolveRedisPassword(t *testing.T) {
	tests := []struct {
		name     string
		redisURL string
		explicit string
		expected string
	}{
		{"prefers explicit password", "redis://:urlpass@localhost:6379", "explicit", "explicit"},
		{"extracts from URL when no explicit", "redis://:urlpass@localhost:6379", "", "urlpass"},
		{"returns empty when no password", "redis://localhost:6379", "", ""},
		{"handles plain address", "localhost:6379", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolveRedisPassword(tt.redisURL, tt.explicit)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestBuildDatabaseURLFromEnv(t *testing.T) {
	originalEnvs := []struct {
		key   string
		value string
	}{
		{"POSTGRESQL_HOST", os.Getenv("POSTGRESQL_HOST")},
		{"POSTGRESQL_USER", os.Getenv("POSTGRESQL_USER")},
		{"POSTGRESQL_PASSWORD", os.Getenv("POSTGRESQL_PASSWORD")},
		{"POSTGRESQL_DATABASE", os.Getenv("POSTGRESQL_DATABASE")},
		{"POSTGRESQL_PORT", os.Getenv("POSTGRESQL_PORT")},
	}
	defer func() {
		for _, env := range originalEnvs {
			if env.value != "" {
				os.Setenv(env.key, env.value)
			} else {
				os.Unsetenv(env.key)
			}
		}
	}()

	t.Run("returns empty when required vars missing", func(t *testing.T) {
		os.Unsetenv("POSTGRESQL_HOST")
		os.Unsetenv("POSTGRESQL_USER")
		os.Unsetenv("POSTGRESQL_DATABASE")
		result := buildDatabaseURLFromEnv()
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("builds URL with all vars set", func(t *testing.T) {
		os.Setenv("POSTGRESQL_HOST", "localhost")
		os.Setenv("POSTGRESQL_USER", "testuser")
		os.Setenv("POSTGRESQL_PASSWORD", "testpass")
		os.Setenv("POSTGRESQL_DATABASE", "testdb")
		os.Setenv("POSTGRESQL_PORT", "5432")

		result := buildDatabaseURLFromEnv()
		if result == "" {
			t.Error("expected non-empty URL")
		}
		if !strings.Contains(result, "testuser") || !strings.Contains(result, "localhost") || !strings.Contains(result, "testdb") {
			t.Errorf("URL missing expected components: %s", result)
		}
	})
}
