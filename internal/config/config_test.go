package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal bool
		expected   bool
	}{
		{"parses false", "TEST_BOOL_1", "false", true, false},
		{"parses 1", "TEST_BOOL_2", "1", false, true},
		{"uses default for empty", "TEST_BOOL_3", "", true, true},
		{"uses default for garbage", "TEST_BOOL_4", "maybe", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvAsBoolOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("CHAT_TIMEOUT_SECONDS", "12")

	cfg := Load()

	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("Expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.GeminiBackend != "rest" {
		t.Errorf("Expected rest backend, got %q", cfg.GeminiBackend)
	}
	if cfg.ChatTimeout != 12*time.Second {
		t.Errorf("Expected 12s chat timeout, got %v", cfg.ChatTimeout)
	}
	if cfg.ChatHistoryCapacity != 50 {
		t.Errorf("Expected capacity 50, got %d", cfg.ChatHistoryCapacity)
	}
	if !cfg.StrictSafetyInput {
		t.Error("Expected strict safety input by default")
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Error("Expected optional stores to be disabled by default")
	}
}

func TestLoad_PanicsWithoutSessionSecret(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SESSION_SECRET", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing SESSION_SECRET")
		}
	}()
	Load()
}

func TestTimeoutsFollowChatTimeout(t *testing.T) {
	for _, chat := range []time.Duration{5 * time.Second, 30 * time.Second, 2 * time.Minute} {
		cfg := &Config{ChatTimeout: chat}

		if cfg.ChatRouteTimeout() <= chat {
			t.Errorf("chat route timeout %v does not outlast chat timeout %v", cfg.ChatRouteTimeout(), chat)
		}
		if cfg.WriteTimeout() <= cfg.ChatRouteTimeout() {
			t.Errorf("write timeout %v does not outlast chat route timeout %v", cfg.WriteTimeout(), cfg.ChatRouteTimeout())
		}
	}
}
