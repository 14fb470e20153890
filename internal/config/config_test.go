package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_STALE_THRESHOLD", "")
	t.Setenv("OLLAMA_CONTEXT_WINDOW", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.Session.StaleThreshold)
	assert.Equal(t, 4096, cfg.Ai.OllamaContextWindow)
	assert.Equal(t, "@every 1m", cfg.Session.ReclaimCron)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "go duration", value: "90s", want: 90 * time.Second},
		{name: "milliseconds", value: "120000", want: 2 * time.Minute},
		{name: "garbage falls back", value: "soon", want: time.Minute},
		{name: "empty falls back", value: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}
