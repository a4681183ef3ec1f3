package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tormodhaugland/planner/internal/model"
)

type LogConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // text or json
	File   string `json:"file,omitempty"`   // empty means <data_dir>/logs/planner.log
}

type Config struct {
	Schema int `json:"schema"`
	// APIURL is the base URL of the Plan Service.
	APIURL string `json:"api_url"`
	// ListingURL is the base URL of the Directory Listing Service. Empty means
	// APIURL; "local" lists the local filesystem directly.
	ListingURL         string             `json:"listing_url,omitempty"`
	ProjectRoot        string             `json:"project_root,omitempty"`
	AllowExternalPaths bool               `json:"allow_external_paths,omitempty"`
	AuthTokenEnv       string             `json:"auth_token_env,omitempty"`
	DataDir            string             `json:"data_dir,omitempty"`
	RequestType        model.RequestType  `json:"default_request_type,omitempty"`
	OutputFormat       model.OutputFormat `json:"default_output_format,omitempty"`
	ExtraExcludes      []string           `json:"extra_excludes,omitempty"`
	Log                LogConfig          `json:"log"`
}

const CurrentConfigSchema = 1

// LocalListing selects the local filesystem lister instead of HTTP.
const LocalListing = "local"

const (
	EnvAPIURL      = "PLANNER_API_URL"
	EnvProjectRoot = "PLANNER_PROJECT_ROOT"
)

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Schema:       CurrentConfigSchema,
		APIURL:       "http://localhost:3000/api",
		ProjectRoot:  "",
		AuthTokenEnv: "PLANNER_TOKEN",
		DataDir:      filepath.Join(home, ".local", "share", "planner"),
		RequestType:  model.RequestLLMGeneration,
		OutputFormat: model.OutputJSON,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the first config file found on the search path, fills unset
// fields from the defaults and applies environment overrides.
func Load(configPath string) (*Config, error) {
	cfg, err := loadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.expandPaths()
	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	for _, path := range getConfigPaths(configPath) {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		cfg := DefaultConfig()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return DefaultConfig(), nil
}

// Save writes the config as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// DefaultPath is where Save writes when no --config flag was given.
func DefaultPath() string {
	return getConfigPaths("")[0]
}

func getConfigPaths(explicit string) []string {
	home, _ := os.UserHomeDir()

	var paths []string

	if explicit != "" {
		paths = append(paths, explicit)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "planner", "config.json"))

	return paths
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProjectRoot)); v != "" {
		c.ProjectRoot = v
	}
}

func (c *Config) expandPaths() {
	c.ProjectRoot = expandHome(c.ProjectRoot)
	c.DataDir = expandHome(c.DataDir)
	c.Log.File = expandHome(c.Log.File)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// AuthToken reads the bearer token from the configured environment variable.
func (c *Config) AuthToken() string {
	if c.AuthTokenEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.AuthTokenEnv))
}

// EffectiveListingURL resolves where directory listings come from.
func (c *Config) EffectiveListingURL() string {
	if c.ListingURL != "" {
		return c.ListingURL
	}
	return c.APIURL
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "planner.db")
}

func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.LogsDir(), "planner.log")
}
