package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DocumentConfig locates the knowledge file and its fingerprint marker.
type DocumentConfig struct {
	Path            string `yaml:"path"`
	FingerprintPath string `yaml:"fingerprint_path"`
}

// IndexConfig configures the persisted vector index and how documents are split.
type IndexConfig struct {
	Dir          string `yaml:"dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// LLMConfig selects and configures the chat model backend. Sampling is
// always deterministic, so there is no temperature setting.
type LLMConfig struct {
	Type        string `yaml:"type"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieverConfig holds the maximal-marginal-relevance parameters.
type RetrieverConfig struct {
	K      int     `yaml:"k"`
	FetchK int     `yaml:"fetch_k"`
	Lambda float64 `yaml:"lambda"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	SessionCookie     string `yaml:"session_cookie"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
	File   string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Document  DocumentConfig  `yaml:"document"`
	Index     IndexConfig     `yaml:"index"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// Environment variables that override values from the config file.
const (
	EnvDocument   = "RAGCHAT_DOCUMENT"
	EnvIndexDir   = "RAGCHAT_INDEX_DIR"
	EnvLLMModel   = "RAGCHAT_LLM_MODEL"
	EnvEmbedModel = "RAGCHAT_EMBED_MODEL"
	EnvAddr       = "RAGCHAT_ADDR"
)

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	// Decode over the numeric defaults so explicit zeros in the file survive.
	cfg := baseConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first configuration value that cannot work.
func (c *AppConfig) Validate() error {
	switch {
	case c.Document.Path == "":
		return errors.New("document.path is required")
	case c.Document.FingerprintPath == "":
		return errors.New("document.fingerprint_path is required")
	case c.Index.Dir == "":
		return errors.New("index.dir is required")
	case c.Index.ChunkSize <= 0:
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	case c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize:
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	case c.Embedder.Model == "":
		return errors.New("embedder.model is required")
	case c.LLM.Model == "":
		return errors.New("llm.model is required")
	case c.Retriever.K <= 0:
		return fmt.Errorf("retriever.k must be positive, got %d", c.Retriever.K)
	case c.Retriever.FetchK < c.Retriever.K:
		return fmt.Errorf("retriever.fetch_k (%d) must be >= retriever.k (%d)", c.Retriever.FetchK, c.Retriever.K)
	case c.Retriever.Lambda < 0 || c.Retriever.Lambda > 1:
		return fmt.Errorf("retriever.lambda must be in [0, 1], got %g", c.Retriever.Lambda)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := baseConfig()
	applyConfigDefaults(cfg)
	return cfg
}

// baseConfig holds the defaults for fields where zero is a legal value.
func baseConfig() *AppConfig {
	return &AppConfig{
		Index:     IndexConfig{ChunkSize: 500, ChunkOverlap: 100},
		Embedder:  EmbedderConfig{TimeoutSecs: 30, BatchSize: 16},
		Retriever: RetrieverConfig{K: 4, FetchK: 8, Lambda: 0.8},
		Server:    ServerConfig{SessionTTLMinutes: 720},
		Log:       LogConfig{Pretty: true},
	}
}

// applyConfigDefaults fills empty strings, including values derived from
// other fields.
func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Document.Path == "" {
		cfg.Document.Path = filepath.Join("docs", "family.txt")
	}
	if cfg.Document.FingerprintPath == "" {
		cfg.Document.FingerprintPath = filepath.Join(filepath.Dir(cfg.Document.Path), "data.hash")
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "index_db"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "nomic-embed-text"
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openai"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = cfg.Embedder.BaseURL
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = cfg.Embedder.APIKeyEnv
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "phi"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "0.0.0.0:5000"
	}
	if cfg.Server.SessionCookie == "" {
		cfg.Server.SessionCookie = "ragchat_session"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv(EnvDocument); v != "" {
		cfg.Document.Path = v
	}
	if v := os.Getenv(EnvIndexDir); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(EnvEmbedModel); v != "" {
		cfg.Embedder.Model = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
}
