package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/mitchellh/go-homedir"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if len(path) != 0 {
		expandedPath, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(expandedPath)
		if err != nil {
			return nil, err
		}

		expanded, err := expandEnvVars(b)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(expanded, config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

const (
	httpListenAddrKey    = "MEMBERD_HTTP_LISTEN_ADDR"
	httpsListenAddrKey   = "MEMBERD_HTTPS_LISTEN_ADDR"
	metricsListenAddrKey = "MEMBERD_METRICS_LISTEN_ADDR"
	serverUrlKey         = "MEMBERD_SERVER_URL"
	databaseTypeKey      = "MEMBERD_DB_TYPE"
	databaseUrlKey       = "MEMBERD_DB_URL"
	tlsDisableKey        = "MEMBERD_TLS_DISABLE"
	tlsCertFileKey       = "MEMBERD_TLS_CERT_FILE"
	tlsKeyFileKey        = "MEMBERD_TLS_KEY_FILE"
	tlsAcmeEnabledKey    = "MEMBERD_TLS_ACME"
	tlsAcmeEmailKey      = "MEMBERD_TLS_ACME_EMAIL"
	tlsAcmeCAKey         = "MEMBERD_TLS_ACME_CA"
	tlsAcmePathKey       = "MEMBERD_TLS_ACME_PATH"
	loggingLevelKey      = "MEMBERD_LOGGING_LEVEL"
	loggingFormatKey     = "MEMBERD_LOGGING_FORMAT"
	loggingFileKey       = "MEMBERD_LOGGING_FILE"
	providerTypeKey      = "MEMBERD_AUTH_PROVIDER_TYPE"
	providerIssuerKey    = "MEMBERD_AUTH_PROVIDER_ISSUER"
	providerTokenUrlKey  = "MEMBERD_AUTH_PROVIDER_TOKEN_URL"
	providerUserInfoKey  = "MEMBERD_AUTH_PROVIDER_USERINFO_URL"
	providerAuthUrlKey   = "MEMBERD_AUTH_PROVIDER_AUTH_URL"
	providerClientIdKey  = "MEMBERD_AUTH_PROVIDER_CLIENT_ID"
	providerSecretKey    = "MEMBERD_AUTH_PROVIDER_CLIENT_SECRET"
	providerRedirectKey  = "MEMBERD_AUTH_PROVIDER_REDIRECT_URL"
	providerScopesKey    = "MEMBERD_AUTH_PROVIDER_SCOPES"
	sessionSecretKey     = "MEMBERD_SESSION_SECRET"
	sessionTtlKey        = "MEMBERD_SESSION_TTL"
)

func defaultConfig() *Config {
	return &Config{
		HttpListenAddr:    GetString(httpListenAddrKey, ":8080"),
		HttpsListenAddr:   GetString(httpsListenAddrKey, ":8443"),
		MetricsListenAddr: GetString(metricsListenAddrKey, ":8081"),
		ServerUrl:         GetString(serverUrlKey, "http://localhost:8080"),
		Database: Database{
			Type: GetString(databaseTypeKey, "sqlite"),
			Url:  GetString(databaseUrlKey, "memberd.db"),
		},
		Tls: Tls{
			Disable:     GetBool(tlsDisableKey, true),
			CertFile:    GetString(tlsCertFileKey, ""),
			KeyFile:     GetString(tlsKeyFileKey, ""),
			AcmeEnabled: GetBool(tlsAcmeEnabledKey, false),
			AcmeEmail:   GetString(tlsAcmeEmailKey, ""),
			AcmeCA:      GetString(tlsAcmeCAKey, certmagic.LetsEncryptProductionCA),
			AcmePath:    GetString(tlsAcmePathKey, ""),
		},
		AuthProvider: AuthProvider{
			Type:         GetString(providerTypeKey, "kakao"),
			Issuer:       GetString(providerIssuerKey, ""),
			AuthUrl:      GetString(providerAuthUrlKey, "https://kauth.kakao.com/oauth/authorize"),
			TokenUrl:     GetString(providerTokenUrlKey, "https://kauth.kakao.com/oauth/token"),
			UserInfoUrl:  GetString(providerUserInfoKey, "https://kapi.kakao.com/v2/user/me"),
			ClientID:     GetString(providerClientIdKey, ""),
			ClientSecret: GetString(providerSecretKey, ""),
			RedirectUrl:  GetString(providerRedirectKey, ""),
			Scopes:       GetStrings(providerScopesKey, nil),
		},
		Session: Session{
			Secret: GetString(sessionSecretKey, ""),
			Ttl:    GetString(sessionTtlKey, "24h"),
		},
		Logging: Logging{
			Level:  GetString(loggingLevelKey, "info"),
			Format: GetString(loggingFormatKey, ""),
			File:   GetString(loggingFileKey, ""),
		},
	}
}

type Config struct {
	HttpListenAddr    string       `yaml:"http_listen_addr,omitempty"`
	HttpsListenAddr   string       `yaml:"https_listen_addr,omitempty"`
	MetricsListenAddr string       `yaml:"metrics_listen_addr,omitempty"`
	ServerUrl         string       `yaml:"server_url,omitempty"`
	Tls               Tls          `yaml:"tls,omitempty"`
	Logging           Logging      `yaml:"logging,omitempty"`
	Database          Database     `yaml:"database,omitempty"`
	AuthProvider      AuthProvider `yaml:"auth_provider,omitempty"`
	Session           Session      `yaml:"session,omitempty"`
}

type Tls struct {
	Disable     bool   `yaml:"disable"`
	CertFile    string `yaml:"cert_file,omitempty"`
	KeyFile     string `yaml:"key_file,omitempty"`
	AcmeEnabled bool   `yaml:"acme_enabled,omitempty"`
	AcmeEmail   string `yaml:"acme_email,omitempty"`
	AcmeCA      string `yaml:"acme_ca,omitempty"`
	AcmePath    string `yaml:"acme_path,omitempty"`
}

type Logging struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

type Database struct {
	Type string `yaml:"type,omitempty"`
	Url  string `yaml:"url,omitempty"`
}

type AuthProvider struct {
	Type         string   `yaml:"type,omitempty"`
	Issuer       string   `yaml:"issuer,omitempty"`
	AuthUrl      string   `yaml:"auth_url,omitempty"`
	TokenUrl     string   `yaml:"token_url,omitempty"`
	UserInfoUrl  string   `yaml:"userinfo_url,omitempty"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectUrl  string   `yaml:"redirect_url,omitempty"`
	Scopes       []string `yaml:"additional_scopes,omitempty"`
}

type Session struct {
	Secret string `yaml:"secret"`
	Ttl    string `yaml:"ttl,omitempty"`
}

func (s *Session) TtlDuration() (time.Duration, error) {
	if len(s.Ttl) == 0 {
		return 24 * time.Hour, nil
	}
	return str2duration.ParseDuration(s.Ttl)
}

func (c *Config) CreateUrl(format string, a ...interface{}) string {
	path := fmt.Sprintf(format, a...)
	return strings.TrimSuffix(c.ServerUrl, "/") + "/" + strings.TrimPrefix(path, "/")
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:([^}]*))?}`)

func expandEnvVars(b []byte) ([]byte, error) {
	var missing []string

	expanded := envVarPattern.ReplaceAllFunc(b, func(match []byte) []byte {
		groups := envVarPattern.FindSubmatch(match)
		name := string(groups[1])

		if v, ok := os.LookupEnv(name); ok && v != "" {
			return []byte(v)
		}

		if len(groups[2]) != 0 {
			return groups[3]
		}

		missing = append(missing, name)
		return nil
	})

	if len(missing) != 0 {
		return nil, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	return expanded, nil
}
