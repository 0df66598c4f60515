package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	TokenStoreConfig struct {
		Driver        string // memory | sqlite | postgres | redis
		DSN           string // sqlite file path or postgres url
		Key           string
		RedisAddr     string
		RedisPassword string
	}

	NotificationConfig struct {
		SuccessDuration time.Duration
		InfoDuration    time.Duration
		WarningDuration time.Duration
		ErrorDuration   time.Duration
	}

	RoutesConfig struct {
		HomePath      string
		DashboardPath string
	}

	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		RollbarToken string

		API           APIConfig
		TokenStore    TokenStoreConfig
		Notifications NotificationConfig
		Routes        RoutesConfig
	}
)

// NewConfig reads the configuration from defaults, the optional `.env.<env>` file found in the config
// directory, and `ALUMNI_*` environment variables (highest priority).
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "PSDAHS Alumni")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("apiBaseURL", "http://localhost:5000/api")
	v.SetDefault("apiTimeout", 15*time.Second)
	v.SetDefault("tokenStoreDriver", "sqlite")
	v.SetDefault("tokenStoreDSN", defaultStorePath())
	v.SetDefault("tokenStoreKey", "token")
	v.SetDefault("redisAddr", "127.0.0.1:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("notifySuccessDuration", 3*time.Second)
	v.SetDefault("notifyInfoDuration", 4*time.Second)
	v.SetDefault("notifyWarningDuration", 6*time.Second)
	v.SetDefault("notifyErrorDuration", 6*time.Second)
	v.SetDefault("homePath", "/")
	v.SetDefault("dashboardPath", "/dashboard")
	v.SetDefault("testMode", false)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("tokenStoreDriver", "memory")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix("alumni")
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("apiBaseURL"), "/"),
			Timeout: v.GetDuration("apiTimeout"),
		},
		TokenStore: TokenStoreConfig{
			Driver:        strings.ToLower(v.GetString("tokenStoreDriver")),
			DSN:           v.GetString("tokenStoreDSN"),
			Key:           v.GetString("tokenStoreKey"),
			RedisAddr:     v.GetString("redisAddr"),
			RedisPassword: v.GetString("redisPassword"),
		},
		Notifications: NotificationConfig{
			SuccessDuration: v.GetDuration("notifySuccessDuration"),
			InfoDuration:    v.GetDuration("notifyInfoDuration"),
			WarningDuration: v.GetDuration("notifyWarningDuration"),
			ErrorDuration:   v.GetDuration("notifyErrorDuration"),
		},
		Routes: RoutesConfig{
			HomePath:      v.GetString("homePath"),
			DashboardPath: v.GetString("dashboardPath"),
		},
	}
	if conf.API.BaseURL == "" {
		return nil, errors.New("config: apiBaseURL is required")
	}
	return conf, nil
}

// Duration returns the display duration configured for the given severity.
func (c NotificationConfig) Duration(sev Severity) time.Duration {
	switch sev {
	case SeveritySuccess:
		return c.SuccessDuration
	case SeverityWarning:
		return c.WarningDuration
	case SeverityError:
		return c.ErrorDuration
	default:
		return c.InfoDuration
	}
}

func configDir() string {
	if dir := os.Getenv("ALUMNI_CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "config"
	}
	return filepath.Join(wd, "config")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "psdahs-alumni", "session.db")
}
