package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from YAML duration strings
// ("15m", "1h30m") as well as integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var asInt int64
	if err := value.Decode(&asInt); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(asInt)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway" json:"gateway"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Portfolio SiteConfig      `yaml:"portfolio" json:"portfolio"`
	Vueverse  SiteConfig      `yaml:"vueverse" json:"vueverse"`
	Mail      MailConfig      `yaml:"mail" json:"mail"`
	Sessions  SessionsConfig  `yaml:"sessions" json:"sessions"`
	Deploy    DeployConfig    `yaml:"deploy" json:"deploy"`
}

type GatewayConfig struct {
	Port    int    `yaml:"port" json:"port"`
	BaseURL string `yaml:"baseURL" json:"baseURL"` // public origin, used by the embed widget for origin checks
}

type ProvidersConfig struct {
	Gemini  ProviderConfig `yaml:"gemini" json:"gemini"`
	Mistral ProviderConfig `yaml:"mistral" json:"mistral"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"apiKey" json:"apiKey"`
	Model   string `yaml:"model" json:"model"`
	BaseURL string `yaml:"baseURL" json:"baseURL"`
}

// SiteConfig describes one assistant variant (the portfolio site or an
// embedded client site). Links with an empty URL are declared but unusable,
// and the executor reports them as not configured.
type SiteConfig struct {
	Name     string            `yaml:"name" json:"name"`
	URL      string            `yaml:"url" json:"url"`
	Context  string            `yaml:"context" json:"context"` // extra knowledge context injected into the system prompt
	Links    map[string]string `yaml:"links" json:"links"`
	Calendly string            `yaml:"calendly" json:"calendly"`
}

type MailConfig struct {
	Receiver string       `yaml:"receiver" json:"receiver"`
	Resend   ResendConfig `yaml:"resend" json:"resend"`
	SMTP     SMTPConfig   `yaml:"smtp" json:"smtp"`
}

type ResendConfig struct {
	APIKey    string `yaml:"apiKey" json:"apiKey"`
	FromEmail string `yaml:"fromEmail" json:"fromEmail"`
	APIURL    string `yaml:"apiURL" json:"apiURL"`
}

type SMTPConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	User      string `yaml:"user" json:"user"`
	Pass      string `yaml:"pass" json:"pass"`
	FromEmail string `yaml:"fromEmail" json:"fromEmail"`
	Secure    bool   `yaml:"secure" json:"secure"`
}

type SessionsConfig struct {
	IdleTimeout Duration `yaml:"idleTimeout" json:"idleTimeout"`
	SweepSpec   string   `yaml:"sweepSpec" json:"sweepSpec"` // cron expression for the janitor
}

// DeployConfig carries deployment metadata surfaced only in diagnostics.
type DeployConfig struct {
	Env    string `yaml:"env" json:"env"`
	ID     string `yaml:"id" json:"id"`
	Region string `yaml:"region" json:"region"`
}

// HasGemini reports whether the primary provider credential is configured.
func (c *Config) HasGemini() bool { return c.Providers.Gemini.APIKey != "" }

// HasMistral reports whether the fallback provider credential is configured.
func (c *Config) HasMistral() bool { return c.Providers.Mistral.APIKey != "" }

func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Port: 8080,
		},
		Providers: ProvidersConfig{
			Gemini: ProviderConfig{
				Model:   "gemini-2.0-flash",
				BaseURL: "https://generativelanguage.googleapis.com",
			},
			Mistral: ProviderConfig{
				// open-mistral-nemo is a common low-cost default on Mistral.
				Model:   "open-mistral-nemo",
				BaseURL: "https://api.mistral.ai",
			},
		},
		Portfolio: SiteConfig{
			Name: "Sai Kalyan Labhishetty",
			URL:  "https://kalyanlabhishetty.vercel.app",
			Links: map[string]string{
				"linkedin": "https://www.linkedin.com/in/kalyan-labhishetty-b16a90179/",
				"github":   "https://github.com/SaikalyanLabhishetty",
				"resume":   "/resume.pdf",
				"home":     "https://kalyanlabhishetty.vercel.app",
			},
		},
		Vueverse: SiteConfig{
			Name: "Vueverse",
			URL:  "https://vueverse.in",
			Links: map[string]string{
				"home": "https://vueverse.in",
			},
		},
		Mail: MailConfig{
			Resend: ResendConfig{
				APIURL: "https://api.resend.com/emails",
			},
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
		Sessions: SessionsConfig{
			IdleTimeout: Duration(30 * time.Minute),
			SweepSpec:   "0 */10 * * * *",
		},
	}
}
