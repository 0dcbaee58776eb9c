package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"gpt2webui/internal/ledger"
	"gpt2webui/internal/openwebui"
	"gpt2webui/internal/util"
)

const EnvPrefix = "GPT2WEBUI"

const (
	KeyInput        = "input"
	KeyOutput       = "output"
	KeyLedgerPath   = "ledger.path"
	KeyLedgerDriver = "ledger.driver"
	KeyModel        = "model"
	KeyUserID       = "user_id"
	KeyStrict       = "strict"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
)

type Config struct {
	Inputs       []string
	Output       string
	LedgerPath   string
	LedgerDriver string
	Model        string
	UserID       string
	Strict       bool
	LogLevel     string
	LogFormat    string
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyInput, []string{"~/chatgpt/chatgpt-export.json"})
	v.SetDefault(KeyOutput, "~/chatgpt/converted-for-open-webui.json")
	v.SetDefault(KeyLedgerPath, "~/chatgpt/imported.json")
	v.SetDefault(KeyLedgerDriver, ledger.DriverJSON)
	v.SetDefault(KeyModel, openwebui.DefaultModel)
	v.SetDefault(KeyUserID, "")
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// New returns a viper instance reading GPT2WEBUI_* variables and, when
// configFile is set, that file. A .env file in the working directory is
// loaded first if present.
func New(configFile string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(util.ExpandHome(configFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}
	return v, nil
}

// Load resolves the effective configuration from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Inputs:       expandAll(splitList(v.GetStringSlice(KeyInput))),
		Output:       util.ExpandHome(v.GetString(KeyOutput)),
		LedgerPath:   util.ExpandHome(v.GetString(KeyLedgerPath)),
		LedgerDriver: strings.ToLower(strings.TrimSpace(v.GetString(KeyLedgerDriver))),
		Model:        strings.TrimSpace(v.GetString(KeyModel)),
		UserID:       strings.TrimSpace(v.GetString(KeyUserID)),
		Strict:       v.GetBool(KeyStrict),
		LogLevel:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:    strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
	}
	if cfg.UserID == "" {
		cfg.UserID = util.NewUUID()
	}
	if cfg.Model == "" {
		cfg.Model = openwebui.DefaultModel
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Inputs) == 0 {
		return errors.New("at least one input is required")
	}
	if c.LedgerPath == "" {
		return errors.New("ledger path is required")
	}
	switch c.LedgerDriver {
	case ledger.DriverJSON, ledger.DriverSQLite:
	default:
		return errors.Errorf("ledger driver must be %s or %s, got %q", ledger.DriverJSON, ledger.DriverSQLite, c.LedgerDriver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// splitList accepts both repeated values and a single comma separated one,
// which is how list values arrive from the environment.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func expandAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, util.ExpandHome(p))
	}
	return out
}
