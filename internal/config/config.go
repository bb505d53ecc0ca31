package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	ERP       ERPConfig
	AzureAd   AzureAdConfig
	ApiKey    ApiKeyConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	Drafts    DraftsConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// ERPConfig holds configuration for the MS SQL Server ERP warehouse that
// exposes the authoritative project budget BOQ. The connection is
// optional and strictly read-only; when disabled or unreachable, budget
// BOQ copies fall back to the local budget table.
type ERPConfig struct {
	// Enabled controls whether the ERP connection is attempted
	Enabled bool
	// URL is the connection URL in format host:port/database (from ERP-URL secret)
	URL string
	// User is the database username (from ERP-USERNAME secret)
	User string
	// Password is the database password (from ERP-PASSWORD secret)
	Password string
	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused (seconds)
	ConnMaxLifetime int
	// QueryTimeout is the default timeout for queries (seconds)
	QueryTimeout int
}

type AzureAdConfig struct {
	TenantId       string
	ClientId       string
	InstanceUrl    string
	RequiredScopes string
}

type ApiKeyConfig struct {
	SecretName string
	Value      string // Loaded from secrets or environment
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// DraftsConfig controls wizard draft retention. Abandoned drafts are
// deleted by a scheduled job once idle past the TTL.
type DraftsConfig struct {
	// IdleTTLHours is how long a draft may go without updates before cleanup
	IdleTTLHours int
	// CleanupSchedule is the cron expression of the cleanup job
	CleanupSchedule string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	BurstSize             int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (e *ERPConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(e.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (e *ERPConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(e.QueryTimeout) * time.Second
}

// IdleTTLDuration returns the draft idle TTL as duration
func (d *DraftsConfig) IdleTTLDuration() time.Duration {
	return time.Duration(d.IdleTTLHours) * time.Hour
}

// Load loads configuration from file and environment variables.
// This is a basic load that doesn't fetch secrets from vault;
// use LoadWithSecrets for full secret resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}

	if cfg.AzureAd.TenantId == "" {
		cfg.AzureAd.TenantId = v.GetString("AZURE_TENANT_ID")
	}
	if cfg.AzureAd.ClientId == "" {
		cfg.AzureAd.ClientId = v.GetString("AZURE_CLIENT_ID")
	}
	if cfg.AzureAd.RequiredScopes == "" {
		cfg.AzureAd.RequiredScopes = v.GetString("AZURE_REQUIRED_SCOPES")
	}

	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	if v.GetBool("ERP_ENABLED") {
		cfg.ERP.Enabled = true
	}

	// ERP credentials are only resolved through LoadWithSecrets; they are
	// never read from plain environment variables.

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the
// configured source. In development (or when secrets.source =
// "environment"), secrets come from env vars; in staging/production with
// USE_AZURE_KEY_VAULT=true they come from Azure Key Vault. ERP
// credentials always come from Key Vault when the ERP connection is
// enabled and a vault is configured.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if cfg.ERP.Enabled && cfg.Secrets.KeyVaultName != "" {
		if err := loadERPSecrets(ctx, cfg, logger); err != nil {
			logger.Warn("Failed to load ERP secrets from Key Vault",
				zap.Error(err),
				zap.String("environment", cfg.App.Environment),
			)
			// Don't fail startup, the ERP connection is optional
		}
	}

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for main secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for main secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault")

	if host, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-HOST", "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if user, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-USER", "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	if password, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if tenantId, err := provider.GetSecretOrEnv(ctx, "azure-tenant-id", "AZURE_TENANT_ID"); err == nil && tenantId != "" {
		cfg.AzureAd.TenantId = tenantId
	}
	if clientId, err := provider.GetSecretOrEnv(ctx, "azure-client-id", "AZURE_CLIENT_ID"); err == nil && clientId != "" {
		cfg.AzureAd.ClientId = clientId
	}

	if apiKey, err := provider.GetSecretOrEnv(ctx, "admin-api-key", "ADMIN_API_KEY"); err == nil && apiKey != "" {
		cfg.ApiKey.Value = apiKey
	}

	if connStr, err := provider.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// loadERPSecrets loads ERP warehouse credentials from Azure Key Vault.
// Called regardless of environment when ERP_ENABLED=true; credentials
// only ever come from the vault.
func loadERPSecrets(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	logger.Info("Loading ERP secrets from Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
		zap.String("environment", cfg.App.Environment),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client for ERP: %w", err)
	}

	url, err := provider.GetSecret(ctx, "ERP-URL")
	if err != nil {
		return fmt.Errorf("failed to get ERP-URL from Key Vault: %w", err)
	}
	cfg.ERP.URL = url

	user, err := provider.GetSecret(ctx, "ERP-USERNAME")
	if err != nil {
		return fmt.Errorf("failed to get ERP-USERNAME from Key Vault: %w", err)
	}
	cfg.ERP.User = user

	password, err := provider.GetSecret(ctx, "ERP-PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to get ERP-PASSWORD from Key Vault: %w", err)
	}
	cfg.ERP.Password = password

	logger.Info("ERP credentials loaded from Key Vault successfully")
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Subcontractor Contracts API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "contracts")
	v.SetDefault("database.user", "contracts_user")
	v.SetDefault("database.password", "contracts_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// ERP warehouse defaults (MS SQL Server, optional, read-only)
	v.SetDefault("erp.enabled", false)
	v.SetDefault("erp.maxOpenConns", 10)
	v.SetDefault("erp.maxIdleConns", 2)
	v.SetDefault("erp.connMaxLifetime", 300)
	v.SetDefault("erp.queryTimeout", 30)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Azure AD defaults
	v.SetDefault("azuread.instanceUrl", "https://login.microsoftonline.com/")

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.maxUploadSizeMB", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	// Draft retention defaults: abandoned drafts expire after a week,
	// cleanup runs nightly
	v.SetDefault("drafts.idleTTLHours", 168)
	v.SetDefault("drafts.cleanupSchedule", "0 3 * * *")

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.burstSize", 10)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})
}
