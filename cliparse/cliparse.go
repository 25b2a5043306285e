package cliparse

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultPort          = 3318
	DefaultDatabaseURL   = "feasibility.db"
	DefaultEstimateRate  = 5.0
	DefaultEstimateBurst = 10
	DefaultSessionTTL    = 7 * 24 * time.Hour
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	AdminKeySalt   string
	SessionSecret  string
	SecureCookies  bool
	SessionTTL     time.Duration
	LogLevel       string
	LogFormat      string
	EstimateRate   float64
	EstimateBurst  int
	AllowedOrigins []string
}

// BindFlags registers the server flags.
func BindFlags(flags *pflag.FlagSet) {
	// Network config (can be CLI args or env)
	flags.IntP("port", "p", DefaultPort, "Server port")
	flags.StringP("database-url", "d", DefaultDatabaseURL, "Database URL or SQLite file path")
	flags.StringP("database-type", "t", "", "Database type (sqlite or postgres, inferred from the URL when empty)")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.String("admin-salt", "", "Reviewer key salt (prefer env)")
	flags.String("session-secret", "", "Session cookie signing secret (prefer env)")
	flags.Bool("secure-cookies", false, "Mark session cookies Secure")
	flags.Duration("session-ttl", DefaultSessionTTL, "Idle time before a wizard session is purged")

	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "auto", "Log format (json, console, auto)")
	flags.Float64("estimate-rate", DefaultEstimateRate, "Live estimate requests per second per client")
	flags.Int("estimate-burst", DefaultEstimateBurst, "Live estimate burst per client")
	flags.StringSlice("allowed-origins", nil, "CORS origins allowed to call the API")

	flags.String("env-file", ".env", "Optional dotenv file to load before reading env")
	flags.String("config", "", "Optional YAML config file")
}

// flag name -> extra env names accepted besides FEASIBILITY_<KEY>
var legacyEnv = map[string]string{
	"port":           "PORT",
	"database-url":   "DATABASE_URL",
	"database-type":  "DATABASE_TYPE",
	"admin-salt":     "ADMIN_KEY_SALT",
	"session-secret": "SESSION_SECRET",
}

// Load resolves the config from flags, env and an optional config file.
// Flags win over env; env wins over the file. Load does not check secrets;
// call Validate before serving.
func Load(flags *pflag.FlagSet) (Config, error) {
	if envFile, _ := flags.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, eris.Wrapf(err, "cliparse: load %s", envFile)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("FEASIBILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = err
			return
		}
		if legacy, ok := legacyEnv[f.Name]; ok {
			primary := "FEASIBILITY_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			bindErr = v.BindEnv(f.Name, primary, legacy)
		}
	})
	if bindErr != nil {
		return Config{}, eris.Wrap(bindErr, "cliparse: bind flags")
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, eris.Wrapf(err, "cliparse: read config %s", path)
		}
	}

	cfg := Config{
		Port:           v.GetInt("port"),
		DatabaseURL:    strings.TrimSpace(v.GetString("database-url")),
		DatabaseType:   strings.ToLower(strings.TrimSpace(v.GetString("database-type"))),
		AdminKeySalt:   v.GetString("admin-salt"),
		SessionSecret:  v.GetString("session-secret"),
		SecureCookies:  v.GetBool("secure-cookies"),
		SessionTTL:     v.GetDuration("session-ttl"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		EstimateRate:   v.GetFloat64("estimate-rate"),
		EstimateBurst:  v.GetInt("estimate-burst"),
		AllowedOrigins: splitList(v.GetStringSlice("allowed-origins")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = DefaultDatabaseURL
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = InferDatabaseType(cfg.DatabaseURL)
	}
	return cfg, nil
}

// InferDatabaseType picks postgres for postgres:// URLs and sqlite otherwise.
func InferDatabaseType(url string) string {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Validate checks everything the server needs before it can start.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return eris.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseType != DriverSQLite && c.DatabaseType != DriverPostgres {
		return eris.Errorf("unsupported database type %q (use sqlite or postgres)", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.AdminKeySalt == "" {
		return eris.New("ADMIN_KEY_SALT required")
	}
	if c.SessionSecret == "" {
		return eris.New("SESSION_SECRET required")
	}

	if c.SessionTTL <= 0 {
		return eris.New("session TTL must be positive")
	}
	if c.EstimateRate <= 0 || c.EstimateBurst <= 0 {
		return eris.New("estimate rate and burst must be positive")
	}
	return nil
}

// InitLogger builds the global zap logger. Format "auto" picks console
// output on a terminal and JSON otherwise.
func InitLogger(level, format string) error {
	if format == "" || format == "auto" {
		format = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) {
			format = "console"
		}
	}

	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "cliparse: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "cliparse: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
