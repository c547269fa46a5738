package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

var current atomic.Pointer[Config]

var (
	onReloadMu        sync.Mutex
	onReloadCallbacks []func(*Config)
)

// Get returns the current in-memory config (hot-reloaded when the file changes).
func Get() *Config { return current.Load() }

// Set sets the current in-memory config. Used at startup and by the file watcher.
func Set(c *Config) {
	if c != nil {
		current.Store(c)
	}
}

// RegisterOnReload registers a callback that runs after config is hot-reloaded.
func RegisterOnReload(fn func(*Config)) {
	onReloadMu.Lock()
	defer onReloadMu.Unlock()
	onReloadCallbacks = append(onReloadCallbacks, fn)
}

func notifyReload(cfg *Config) {
	onReloadMu.Lock()
	cb := make([]func(*Config), len(onReloadCallbacks))
	copy(cb, onReloadCallbacks)
	onReloadMu.Unlock()
	for _, fn := range cb {
		fn(cfg)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the YAML config at path, expands ${VAR} references from the
// environment, and layers environment credential overrides on top so a file
// never has to contain secrets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ensureNonNilMaps(cfg)
	applyEnvOverrides(cfg)
	applyLoadDefaults(cfg)

	return cfg, nil
}

// FromEnv builds a config purely from environment variables, for deployments
// that carry no config file at all.
func FromEnv() *Config {
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	applyLoadDefaults(cfg)
	return cfg
}

func ensureNonNilMaps(cfg *Config) {
	if cfg.Portfolio.Links == nil {
		cfg.Portfolio.Links = map[string]string{}
	}
	if cfg.Vueverse.Links == nil {
		cfg.Vueverse.Links = map[string]string{}
	}
}

func applyLoadDefaults(cfg *Config) {
	if cfg.Gateway.Port <= 0 {
		cfg.Gateway.Port = 8080
	}
	if cfg.Providers.Gemini.Model == "" {
		cfg.Providers.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Providers.Mistral.Model == "" {
		cfg.Providers.Mistral.Model = "open-mistral-nemo"
	}
	if cfg.Providers.Gemini.BaseURL == "" {
		cfg.Providers.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Providers.Mistral.BaseURL == "" {
		cfg.Providers.Mistral.BaseURL = "https://api.mistral.ai"
	}
	if cfg.Mail.Resend.APIURL == "" {
		cfg.Mail.Resend.APIURL = "https://api.resend.com/emails"
	}
	if cfg.Sessions.IdleTimeout <= 0 {
		cfg.Sessions.IdleTimeout = Duration(30 * time.Minute)
	}
	if cfg.Sessions.SweepSpec == "" {
		cfg.Sessions.SweepSpec = "0 */10 * * * *"
	}
}

// applyEnvOverrides maps the deployment environment variables onto the typed
// config. GOOGLE_API_KEY is accepted as an alias for GEMINI_API_KEY.
func applyEnvOverrides(cfg *Config) {
	setIfEnv(&cfg.Providers.Gemini.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	setIfEnv(&cfg.Providers.Gemini.Model, "GEMINI_MODEL")
	setIfEnv(&cfg.Providers.Mistral.APIKey, "MISTRAL_API_KEY")
	setIfEnv(&cfg.Providers.Mistral.Model, "MISTRAL_MODEL")

	setIfEnv(&cfg.Gateway.BaseURL, "GATEWAY_BASE_URL")
	if port := os.Getenv("GATEWAY_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Gateway.Port = n
		}
	}

	setLinkIfEnv(cfg.Vueverse.Links, "linkedin", "VUEVERSE_LINKEDIN_URL")
	setLinkIfEnv(cfg.Vueverse.Links, "github", "VUEVERSE_GITHUB_URL")
	setIfEnv(&cfg.Vueverse.Calendly, "VUEVERSE_CALENDLY_URL")
	setIfEnv(&cfg.Vueverse.Context, "VUEVERSE_AGENT_CONTEXT")
	if cfg.Vueverse.Calendly != "" {
		cfg.Vueverse.Links["calendly"] = cfg.Vueverse.Calendly
	}

	setIfEnv(&cfg.Mail.Receiver, "CONTACT_RECEIVER_EMAIL")
	setIfEnv(&cfg.Mail.Resend.APIKey, "RESEND_API_KEY")
	setIfEnv(&cfg.Mail.Resend.FromEmail, "RESEND_FROM_EMAIL")
	setIfEnv(&cfg.Mail.Resend.APIURL, "RESEND_API_URL")
	setIfEnv(&cfg.Mail.SMTP.Host, "SMTP_HOST")
	setIfEnv(&cfg.Mail.SMTP.User, "SMTP_USER")
	setIfEnv(&cfg.Mail.SMTP.Pass, "SMTP_PASS")
	setIfEnv(&cfg.Mail.SMTP.FromEmail, "SMTP_FROM_EMAIL")
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Mail.SMTP.Port = n
		}
	}
	if secure := os.Getenv("SMTP_SECURE"); secure != "" {
		cfg.Mail.SMTP.Secure = secure == "true"
	}

	setIfEnv(&cfg.Deploy.Env, "DEPLOY_ENV")
	setIfEnv(&cfg.Deploy.ID, "DEPLOY_ID")
	setIfEnv(&cfg.Deploy.Region, "DEPLOY_REGION")
}

func setIfEnv(dst *string, keys ...string) {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			*dst = val
			return
		}
	}
}

func setLinkIfEnv(links map[string]string, target, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		links[target] = val
	}
}

func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// ResolveConfigPath finds the config file.
// Priority: explicit flag > PORTFOLIO_AGENT_CONFIG env > ./config.yaml.
func ResolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if path := os.Getenv("PORTFOLIO_AGENT_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}
