package cmd

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/chainreact/chainreact-sim/sim/narrate"
)

const defaultListenAddr = ":8080"

// Env holds settings read from the environment and .env files.
type Env struct {
	GroqAPIKey      string
	NarratorBaseURL string
	NarratorModel   string
	NarratorTimeout time.Duration
	DBPath          string
	Addr            string
}

// loadEnv reads .env next to the binary, then in the working directory.
// Variables already set in the environment win over both.
func loadEnv() Env {
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			logrus.Debugf("loaded configuration from %s", envPath)
		}
	}
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env in working directory; using process environment")
	}
	return envFromLookup(os.Getenv)
}

func envFromLookup(get func(string) string) Env {
	timeout := narrate.DefaultConfig().Timeout
	if v := get("NARRATOR_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		} else {
			logrus.Warnf("ignoring invalid NARRATOR_TIMEOUT_SECONDS=%q", v)
		}
	}
	addr := get("CHAINREACT_ADDR")
	if addr == "" {
		addr = defaultListenAddr
	}
	baseURL := get("NARRATOR_BASE_URL")
	if baseURL == "" {
		baseURL = narrate.DefaultBaseURL
	}
	return Env{
		GroqAPIKey:      get("GROQ_API_KEY"),
		NarratorBaseURL: baseURL,
		NarratorModel:   get("NARRATOR_MODEL"),
		NarratorTimeout: timeout,
		DBPath:          get("CHAINREACT_DB"),
		Addr:            addr,
	}
}

// narratorConfig derives the LLM narrator settings.
func (e Env) narratorConfig() narrate.Config {
	cfg := narrate.DefaultConfig()
	cfg.APIKey = e.GroqAPIKey
	cfg.BaseURL = e.NarratorBaseURL
	cfg.Model = e.NarratorModel
	cfg.Timeout = e.NarratorTimeout
	return cfg
}
