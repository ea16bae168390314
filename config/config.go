package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Capture   CaptureConfig   `yaml:"capture"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Minio     MinioConfig     `yaml:"minio"`
	Notify    NotifyConfig    `yaml:"notify"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	StaticDir    string   `yaml:"static_dir"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// SheetsConfig points at the spreadsheet web app that stores the leads.
type SheetsConfig struct {
	Endpoint       string       `yaml:"endpoint"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
	Params         AppendParams `yaml:"params"`
}

// AppendParams names the query parameters used by addLead. The names differ
// between revisions of the sheet script.
type AppendParams struct {
	Name    string `yaml:"name"`
	Project string `yaml:"project"`
	Phone   string `yaml:"phone"`
	Date    string `yaml:"date"`
	Time    string `yaml:"time"`
}

type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	TokenExpireHours  int    `yaml:"token_expire_hours"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CaptureConfig controls the automatic date/time stamp on public submissions.
type CaptureConfig struct {
	Timezone           string `yaml:"timezone"`
	RefreshDelayMillis int    `yaml:"refresh_delay_ms"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	SubmitsPerMinute  int `yaml:"submits_per_minute"`
}

// MinioConfig is optional; exports are streamed directly when Endpoint is empty.
type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// NotifyConfig is optional; no mail is sent when ResendAPIKey is empty.
type NotifyConfig struct {
	ResendAPIKey string   `yaml:"resend_api_key"`
	From         string   `yaml:"from"`
	To           []string `yaml:"to"`
}

// Environment variables that take precedence over the file.
const (
	EnvSheetsEndpoint    = "LEAD_SHEETS_ENDPOINT"
	EnvJWTSecret         = "LEAD_JWT_SECRET"
	EnvAdminPasswordHash = "LEAD_ADMIN_PASSWORD_HASH"
	EnvPort              = "LEAD_PORT"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvSheetsEndpoint); ok && v != "" {
		c.Sheets.Endpoint = v
	}
	if v, ok := os.LookupEnv(EnvJWTSecret); ok && v != "" {
		c.Auth.JWTSecret = v
	}
	if v, ok := os.LookupEnv(EnvAdminPasswordHash); ok && v != "" {
		c.Auth.AdminPasswordHash = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Sheets.TimeoutSeconds == 0 {
		c.Sheets.TimeoutSeconds = 30
	}
	p := &c.Sheets.Params
	if p.Name == "" {
		p.Name = "name"
	}
	if p.Project == "" {
		p.Project = "project"
	}
	if p.Phone == "" {
		p.Phone = "phone"
	}
	if p.Date == "" {
		p.Date = "date"
	}
	if p.Time == "" {
		p.Time = "time"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Capture.Timezone == "" {
		c.Capture.Timezone = "UTC"
	}
	if c.Capture.RefreshDelayMillis == 0 {
		c.Capture.RefreshDelayMillis = 1500
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 100
	}
	if c.RateLimit.SubmitsPerMinute == 0 {
		c.RateLimit.SubmitsPerMinute = 10
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.Sheets.Endpoint == "" {
		errs = append(errs, fmt.Errorf("sheets.endpoint is required (or set %s)", EnvSheetsEndpoint))
	} else if u, err := url.Parse(c.Sheets.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("sheets.endpoint %q is not an http(s) URL", c.Sheets.Endpoint))
	}

	seen := map[string]bool{"action": true}
	for _, name := range c.Sheets.Params.names() {
		if seen[name] {
			errs = append(errs, fmt.Errorf("sheets.params: %q is reserved or used twice", name))
		}
		seen[name] = true
	}

	if c.Auth.AdminPasswordHash != "" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when an admin password is set"))
	}
	if _, err := c.Capture.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Minio.Endpoint != "" && c.Minio.Bucket == "" {
		errs = append(errs, errors.New("minio.bucket is required when minio.endpoint is set"))
	}
	if c.Notify.ResendAPIKey != "" && (c.Notify.From == "" || len(c.Notify.To) == 0) {
		errs = append(errs, errors.New("notify.from and notify.to are required when notify.resend_api_key is set"))
	}

	return errors.Join(errs...)
}

func (p AppendParams) names() []string {
	return []string{p.Name, p.Project, p.Phone, p.Date, p.Time}
}

// Timeout is the transport timeout for calls to the sheet.
func (s SheetsConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Location resolves the capture timezone.
func (c CaptureConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("capture.timezone: %w", err)
	}
	return loc, nil
}

// RefreshDelay is how long to wait after an append before re-reading the sheet.
func (c CaptureConfig) RefreshDelay() time.Duration {
	return time.Duration(c.RefreshDelayMillis) * time.Millisecond
}

// AdminEnabled reports whether admin login is configured.
func (a AuthConfig) AdminEnabled() bool {
	return a.AdminPasswordHash != ""
}

func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

func (n NotifyConfig) Enabled() bool {
	return n.ResendAPIKey != ""
}
