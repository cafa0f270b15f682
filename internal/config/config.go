package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the minedash server and its dependencies.
type Config struct {
	// Listen is the address the minedash server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the minedash server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session cookie in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as https-only.
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`

	// Strapi holds the connection settings for the content API.
	Strapi *StrapiConfig `yaml:"strapi" mapstructure:"strapi"`
	// Auth holds the sign-in and role gate settings.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Table holds the defaults for tabular views.
	Table *TableConfig `yaml:"table" mapstructure:"table"`
	// Cache holds the view-state cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Database holds the local audit database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Email holds the operator notification configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Contact holds the fallback values of the contact page.
	Contact *ContactConfig `yaml:"contact" mapstructure:"contact"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// StrapiConfig holds the configuration for the Strapi content API.
type StrapiConfig struct {
	// URL is the base URL of the API including the /api prefix.
	URL string `yaml:"url" mapstructure:"url"`
	// Timeout bounds every request to the API.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// AdminRoles lists the role ids allowed on role-gated routes.
	AdminRoles []string `yaml:"admin_roles" mapstructure:"admin_roles"`
	// TokenTTL is how long a token is trusted after sign-in.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// PasswordPolicy holds the sign-up password rules.
	PasswordPolicy *PasswordPolicyConfig `yaml:"password_policy" mapstructure:"password_policy"`
}

// PasswordPolicyConfig configures the sign-up password strength check.
type PasswordPolicyConfig struct {
	// Enabled turns on the upper/lower/digit check.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MinLength is the minimum password length.
	MinLength int `yaml:"min_length" mapstructure:"min_length"`
}

// TableConfig holds defaults for tabular views.
type TableConfig struct {
	// DefaultPageSize is the number of rows per page when none is requested.
	DefaultPageSize int `yaml:"default_page_size" mapstructure:"default_page_size"`
	// PageSizeOptions lists the page sizes a client may request.
	PageSizeOptions []int `yaml:"page_size_options" mapstructure:"page_size_options"`
	// DefaultOrderBy is the initial sort field.
	DefaultOrderBy string `yaml:"default_order_by" mapstructure:"default_order_by"`
	// DefaultFilterField is the field the search box filters on.
	DefaultFilterField string `yaml:"default_filter_field" mapstructure:"default_filter_field"`
}

// CacheConfig holds the configuration for the view-state cache.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// ViewTTL is how long a loaded bank-record view is kept.
	ViewTTL time.Duration `yaml:"view_ttl" mapstructure:"view_ttl"`
	// CleanupSchedule is the cron schedule of the cache cleanup job.
	CleanupSchedule string `yaml:"cleanup_schedule" mapstructure:"cleanup_schedule"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// EmailConfig holds the email notification configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// OperatorEmail receives a message for every submitted transaction form.
	OperatorEmail string `yaml:"operator_email" mapstructure:"operator_email"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use implicit TLS for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// ContactConfig holds the values shown when the contact entry is incomplete.
type ContactConfig struct {
	Email         string `yaml:"email" mapstructure:"email"`
	TelegramGroup string `yaml:"telegram_group" mapstructure:"telegram_group"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("MINEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.minedash")
		v.AddConfigPath("/etc/minedash")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and environment")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3000")
	v.SetDefault("server_url", "http://localhost:3000")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 28800) // 8 hours, matches the token ttl
	v.SetDefault("secure_cookies", false)

	v.SetDefault("strapi.timeout", 10*time.Second)

	v.SetDefault("auth.admin_roles", []string{"1"})
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("auth.password_policy.enabled", false)
	v.SetDefault("auth.password_policy.min_length", 8)

	v.SetDefault("table.default_page_size", 5)
	v.SetDefault("table.page_size_options", []int{5, 10, 25})
	v.SetDefault("table.default_order_by", "username")
	v.SetDefault("table.default_filter_field", "username")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.view_ttl", 10*time.Minute)
	v.SetDefault("cache.cleanup_schedule", "*/30 * * * *")

	v.SetDefault("database.path", "./data/minedash.db")

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from_name", "Minedash")
	v.SetDefault("email.operator_email", "")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	v.SetDefault("contact.email", "minecom@minescom.net")
	v.SetDefault("contact.telegram_group", "https://t.me/+W15FNJYs27ljMjZh")

	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "mp")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 40)
}

// viper's AutomaticEnv only resolves nested keys it already knows about, so
// keys without a default have to be bound by hand.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("strapi.url", "MINEDASH_STRAPI_URL")
	v.MustBindEnv("email.from_email", "MINEDASH_EMAIL_FROM_EMAIL")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing minedash config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.Strapi == nil || c.Strapi.URL == "" {
		return fmt.Errorf("strapi URL is required")
	}
	if _, err := url.ParseRequestURI(c.Strapi.URL); err != nil {
		return fmt.Errorf("invalid strapi URL: %w", err)
	}
	if c.Strapi.Timeout <= 0 {
		return fmt.Errorf("strapi timeout must be greater than 0")
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}
	if len(c.Auth.AdminRoles) == 0 {
		return fmt.Errorf("at least one admin role is required")
	}
	if c.Auth.PasswordPolicy != nil && c.Auth.PasswordPolicy.Enabled && c.Auth.PasswordPolicy.MinLength <= 0 {
		return fmt.Errorf("password policy min length must be greater than 0")
	}

	if c.Table == nil {
		return fmt.Errorf("missing table config")
	}
	if c.Table.DefaultPageSize <= 0 {
		return fmt.Errorf("default page size must be greater than 0")
	}
	for _, size := range c.Table.PageSizeOptions {
		if size <= 0 {
			return fmt.Errorf("page size options must be greater than 0, got %d", size)
		}
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is configured")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
		if len(strings.Fields(c.Cache.CleanupSchedule)) != 5 {
			return fmt.Errorf("cache cleanup schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
	} else {
		c.Cache = &CacheConfig{
			Type:            CacheTypeMemory,
			ViewTTL:         10 * time.Minute,
			CleanupSchedule: "*/30 * * * *",
		}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required when email is enabled") //nolint:staticcheck
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email is enabled")
		}
		if c.Email.OperatorEmail == "" {
			return fmt.Errorf("operator email is required when email is enabled")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.Strapi != nil {
		c.Strapi.URL = urlSanitize(c.Strapi.URL)
	}

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// IsAdminRole reports whether roleID is in the admin allow-list.
func (c *AuthConfig) IsAdminRole(roleID string) bool {
	if c == nil || roleID == "" {
		return false
	}
	for _, r := range c.AdminRoles {
		if r == roleID {
			return true
		}
	}
	return false
}

// GetTokenTTL returns the token lifetime with proper defaults.
func (c *AuthConfig) GetTokenTTL() time.Duration {
	if c == nil || c.TokenTTL <= 0 {
		return 8 * time.Hour
	}
	return c.TokenTTL
}

// ClampPageSize returns size when it is one of the allowed options and the
// default page size otherwise.
func (c *TableConfig) ClampPageSize(size int) int {
	for _, opt := range c.PageSizeOptions {
		if opt == size {
			return size
		}
	}
	return c.DefaultPageSize
}
