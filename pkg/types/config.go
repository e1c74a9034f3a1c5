package types

import (
	"strings"
	"time"
)

// Mode constants for gateway operation
const (
	ModeLocal  = "local"  // No Redis/Postgres, in-memory state
	ModeRemote = "remote" // Full infrastructure
)

// AppConfig is the root configuration for the satchel gateway
type AppConfig struct {
	Mode       string `key:"mode" json:"mode"` // "local" or "remote"
	DebugMode  bool   `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool   `key:"prettyLogs" json:"pretty_logs"`

	Database  DatabaseConfig  `key:"database" json:"database"`
	Gateway   GatewayConfig   `key:"gateway" json:"gateway"`
	Transport TransportConfig `key:"transport" json:"transport"`
	Drive     DriveConfig     `key:"drive" json:"drive"`
	Summary   SummaryConfig   `key:"summary" json:"summary"`
	Admin     AdminConfig     `key:"admin" json:"admin"`
}

// IsLocalMode returns true if running in local mode (no Redis/Postgres)
func (c *AppConfig) IsLocalMode() bool {
	return c.Mode == ModeLocal
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Redis    RedisConfig    `key:"redis" json:"redis"`
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
}

type RedisMode string

const (
	RedisModeSingle  RedisMode = "single"
	RedisModeCluster RedisMode = "cluster"
)

type RedisConfig struct {
	Mode               RedisMode     `key:"mode" json:"mode"`
	Addrs              []string      `key:"addrs" json:"addrs"`
	Username           string        `key:"username" json:"username"`
	Password           string        `key:"password" json:"password"`
	ClientName         string        `key:"clientName" json:"client_name"`
	EnableTLS          bool          `key:"enableTLS" json:"enable_tls"`
	InsecureSkipVerify bool          `key:"insecureSkipVerify" json:"insecure_skip_verify"`
	PoolSize           int           `key:"poolSize" json:"pool_size"`
	MinIdleConns       int           `key:"minIdleConns" json:"min_idle_conns"`
	MaxIdleConns       int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxIdleTime    time.Duration `key:"connMaxIdleTime" json:"conn_max_idle_time"`
	ConnMaxLifetime    time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
	DialTimeout        time.Duration `key:"dialTimeout" json:"dial_timeout"`
	ReadTimeout        time.Duration `key:"readTimeout" json:"read_timeout"`
	WriteTimeout       time.Duration `key:"writeTimeout" json:"write_timeout"`
	MaxRedirects       int           `key:"maxRedirects" json:"max_redirects"`
	MaxRetries         int           `key:"maxRetries" json:"max_retries"`
	RouteByLatency     bool          `key:"routeByLatency" json:"route_by_latency"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
	AuthToken       string        `key:"authToken" json:"auth_token"`
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	ExternalURL      string     `key:"externalUrl" json:"external_url"` // Public base URL for OAuth redirects
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}

// ----------------------------------------------------------------------------
// Transport Configuration
// ----------------------------------------------------------------------------

// DefaultMaxReplyLength is the WhatsApp cap for media-less text messages
const DefaultMaxReplyLength = 1500

// TransportConfig configures the inbound messaging webhook (Twilio-style).
// AccountSID and AuthToken authenticate outbound media fetches against the
// transport's media endpoints.
type TransportConfig struct {
	AccountSID     string        `key:"accountSid" json:"account_sid"`
	AuthToken      string        `key:"authToken" json:"auth_token"`
	MaxReplyLength int           `key:"maxReplyLength" json:"max_reply_length"`
	MediaTimeout   time.Duration `key:"mediaTimeout" json:"media_timeout"`
}

// ----------------------------------------------------------------------------
// Drive Configuration
// ----------------------------------------------------------------------------

// DriveConfig configures the Google Drive OAuth app and connect flow
type DriveConfig struct {
	ClientID       string        `key:"clientId" json:"client_id"`
	ClientSecret   string        `key:"clientSecret" json:"client_secret"`
	RedirectURL    string        `key:"redirectUrl" json:"redirect_url"` // e.g., https://satchel.example.com/api/v1/oauth/callback
	Scopes         []string      `key:"scopes" json:"scopes"`
	PendingAuthTTL time.Duration `key:"pendingAuthTtl" json:"pending_auth_ttl"`
}

// ----------------------------------------------------------------------------
// Summary Configuration
// ----------------------------------------------------------------------------

// SummaryConfig configures the AI folder summarizer
type SummaryConfig struct {
	APIKey   string `key:"apiKey" json:"api_key"`
	Model    string `key:"model" json:"model"`
	MaxChars int    `key:"maxChars" json:"max_chars"`
}

// IsConfigured returns true when the summarizer can be used
func (c SummaryConfig) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ----------------------------------------------------------------------------
// Admin Configuration
// ----------------------------------------------------------------------------

// AdminConfig configures the operator console
type AdminConfig struct {
	Enabled    bool   `key:"enabled" json:"enabled"`
	SessionKey string `key:"sessionKey" json:"session_key"` // Secret for JWT signing
}
