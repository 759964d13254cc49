package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`
	Database struct {
		Driver       string `mapstructure:"driver"`
		DSN          string `mapstructure:"dsn"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"database"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenTTL      time.Duration `mapstructure:"token_ttl"`
		AdminPassword string        `mapstructure:"admin_password"`
	} `mapstructure:"auth"`
	Azure struct {
		// Mode selects the credential provider: "azure" (azidentity) or "oauth2" (generic client credentials).
		Mode               string        `mapstructure:"mode"`
		TenantID           string        `mapstructure:"tenant_id"`
		ClientID           string        `mapstructure:"client_id"`
		ClientSecret       string        `mapstructure:"client_secret"`
		TokenURL           string        `mapstructure:"token_url"`
		Scope              string        `mapstructure:"scope"`
		ManagementEndpoint string        `mapstructure:"management_endpoint"`
		APIVersion         string        `mapstructure:"api_version"`
		TokenTimeout       time.Duration `mapstructure:"token_timeout"`
		RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"azure"`
	Templates struct {
		Dir      string        `mapstructure:"dir"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"templates"`
	Deploy struct {
		// LicenseIdentifier is "generated" (fresh GUID per deploy) or "license" (the tenant license's stored GUID).
		LicenseIdentifier string `mapstructure:"license_identifier"`
	} `mapstructure:"deploy"`
	Sheets struct {
		Enabled         bool   `mapstructure:"enabled"`
		CredentialsFile string `mapstructure:"credentials_file"`
		SpreadsheetID   string `mapstructure:"spreadsheet_id"`
		SheetName       string `mapstructure:"sheet_name"`
	} `mapstructure:"sheets"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tenant-deployment-system")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/tenant-deployment.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)

	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_password", "admin")

	v.SetDefault("azure.mode", "azure")
	v.SetDefault("azure.tenant_id", "")
	v.SetDefault("azure.client_id", "")
	v.SetDefault("azure.client_secret", "")
	v.SetDefault("azure.token_url", "")
	v.SetDefault("azure.scope", "https://management.azure.com/.default")
	v.SetDefault("azure.management_endpoint", "https://management.azure.com")
	v.SetDefault("azure.api_version", "2016-06-01")
	v.SetDefault("azure.token_timeout", 30*time.Second)
	v.SetDefault("azure.request_timeout", 60*time.Second)

	v.SetDefault("templates.dir", "templates/logic-apps")
	v.SetDefault("templates.cache_ttl", 5*time.Minute)

	v.SetDefault("deploy.license_identifier", "generated")

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.sheet_name", "Deployments")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from an optional YAML file, an optional .env file
// and TDS_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration built from defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
