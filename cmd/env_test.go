package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chainreact/chainreact-sim/sim/narrate"
)

func lookup(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestEnvFromLookup_Defaults(t *testing.T) {
	env := envFromLookup(lookup(nil))

	assert.Empty(t, env.GroqAPIKey)
	assert.Equal(t, narrate.DefaultBaseURL, env.NarratorBaseURL)
	assert.Equal(t, narrate.DefaultConfig().Timeout, env.NarratorTimeout)
	assert.Equal(t, defaultListenAddr, env.Addr)
	assert.Empty(t, env.DBPath)
}

func TestEnvFromLookup_Overrides(t *testing.T) {
	env := envFromLookup(lookup(map[string]string{
		"GROQ_API_KEY":             "gsk-test",
		"NARRATOR_BASE_URL":        "http://localhost:9999/v1",
		"NARRATOR_MODEL":           "llama3-8b-8192",
		"NARRATOR_TIMEOUT_SECONDS": "3",
		"CHAINREACT_DB":            "/tmp/runs.db",
		"CHAINREACT_ADDR":          "127.0.0.1:9000",
	}))

	assert.Equal(t, "gsk-test", env.GroqAPIKey)
	assert.Equal(t, "http://localhost:9999/v1", env.NarratorBaseURL)
	assert.Equal(t, 3*time.Second, env.NarratorTimeout)
	assert.Equal(t, "/tmp/runs.db", env.DBPath)
	assert.Equal(t, "127.0.0.1:9000", env.Addr)

	cfg := env.narratorConfig()
	assert.Equal(t, "gsk-test", cfg.APIKey)
	assert.Equal(t, "llama3-8b-8192", cfg.Model)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestEnvFromLookup_InvalidTimeoutKeepsDefault(t *testing.T) {
	for _, v := range []string{"soon", "0", "-5"} {
		env := envFromLookup(lookup(map[string]string{"NARRATOR_TIMEOUT_SECONDS": v}))
		assert.Equal(t, narrate.DefaultConfig().Timeout, env.NarratorTimeout, v)
	}
}
