package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// User is one authorized identity from the configuration store.
type User struct {
	Identity    int64
	DisplayName string
	Language    string
}

// Config is the shared configuration store. It is read once at startup;
// CurrentModel is the only field mutated at runtime and is written back
// through SetCurrentModel.
type Config struct {
	TelegramToken string   `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	OpenAIKey     string   `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	Provider      string   `yaml:"provider" env:"TOPICGPT_PROVIDER" env-default:"openai"`
	AllowedModels []string `yaml:"allowed_models"`
	CurrentModel  string   `yaml:"current_model" env-default:"gpt-4o-mini"`
	MaxExchanges  int      `yaml:"max_exchanges" env:"TOPICGPT_MAX_EXCHANGES" env-default:"10"`
	DBPath        string   `yaml:"db_path" env:"TOPICGPT_DB_PATH" env-default:"./chats/topicgpt.db"`
	// Users holds identity#displayName#language triples.
	Users []string `yaml:"users"`

	PollTimeoutSeconds int `yaml:"poll_timeout_seconds" env:"TG_TIMEOUT" env-default:"30"`
	GenTimeoutSeconds  int `yaml:"generation_timeout_seconds" env:"TOPICGPT_GEN_TIMEOUT_SECONDS" env-default:"120"`
	MaxInFlight        int `yaml:"max_inflight_generations" env:"TOPICGPT_MAX_INFLIGHT" env-default:"4"`

	path  string
	users map[int64]User

	mu sync.Mutex
}

// Load reads and validates the configuration file. Failures here are
// meant to be fatal: a bot without valid configuration cannot run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.path = path

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("config %s: telegram_token is required", path)
	}
	if cfg.Provider == "openai" && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("config %s: openai_api_key is required when provider=openai", path)
	}
	if cfg.MaxExchanges <= 0 {
		return nil, fmt.Errorf("config %s: max_exchanges must be positive", path)
	}
	if len(cfg.AllowedModels) == 0 {
		return nil, fmt.Errorf("config %s: allowed_models must not be empty", path)
	}
	if !contains(cfg.AllowedModels, cfg.CurrentModel) {
		return nil, fmt.Errorf("config %s: current_model %q is not in allowed_models", path, cfg.CurrentModel)
	}

	users, err := parseUsers(cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.users = users

	return cfg, nil
}

// AuthorizedUsers returns the authorized identities keyed by identity.
func (c *Config) AuthorizedUsers() map[int64]User {
	return c.users
}

// SetCurrentModel writes the new model back to the configuration file
// with an atomic read-modify-write: the document is re-read, only
// current_model is changed, and the file is replaced via rename. The
// in-memory value is updated only after the write succeeded.
func (c *Config) SetCurrentModel(model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reread config %s: %w", c.path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode config %s: %w", c.path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	doc["current_model"] = model

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", c.path, err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace config %s: %w", c.path, err)
	}

	c.CurrentModel = model
	return nil
}

// parseUsers parses identity#displayName#language triples. The language
// part may be omitted and defaults to "en".
func parseUsers(entries []string) (map[int64]User, error) {
	users := make(map[int64]User, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "#")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("malformed user entry %q (want identity#displayName#language)", entry)
		}
		identity, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed user identity in %q: %w", entry, err)
		}
		language := "en"
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			language = strings.TrimSpace(parts[2])
		}
		users[identity] = User{
			Identity:    identity,
			DisplayName: strings.TrimSpace(parts[1]),
			Language:    language,
		}
	}
	return users, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
