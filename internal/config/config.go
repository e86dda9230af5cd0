// Package config loads dipwatch settings from defaults, an optional config
// file, a .env file, the environment and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dipwatch/internal/logger"
	"dipwatch/internal/market"
	"dipwatch/internal/types"
)

const EnvPrefix = "DIPWATCH"

type Config struct {
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Screen   ScreenConfig   `mapstructure:"screen"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type ExchangeConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Quote     string        `mapstructure:"quote"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	PageLimit int           `mapstructure:"page_limit"`
}

type ScreenConfig struct {
	TopN       int           `mapstructure:"top_n"`
	NearLowPct float64       `mapstructure:"near_low_pct"`
	RSIMax     float64       `mapstructure:"rsi_max"`
	RSIPeriod  int           `mapstructure:"rsi_period"`
	Interval   string        `mapstructure:"interval"`
	Lookback   time.Duration `mapstructure:"lookback"`
	Pause      time.Duration `mapstructure:"pause"`
}

type AlertConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type NotifyConfig struct {
	Sink     string         `mapstructure:"sink"` // telegram, kafka, log
	Telegram TelegramConfig `mapstructure:"telegram"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	ChatID  string `mapstructure:"chat_id"`
	BaseURL string `mapstructure:"base_url"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Target  string   `mapstructure:"target"` // message key
}

type ScheduleConfig struct {
	Every time.Duration `mapstructure:"every"` // 0 runs once
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the HTTP server
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.base_url", "https://api.bitvavo.com/v2")
	v.SetDefault("exchange.quote", "EUR")
	v.SetDefault("exchange.timeout", 30*time.Second)
	v.SetDefault("exchange.retries", 0)
	v.SetDefault("exchange.page_limit", 1440)

	v.SetDefault("screen.top_n", 80)
	v.SetDefault("screen.near_low_pct", 3.0)
	v.SetDefault("screen.rsi_max", 35.0)
	v.SetDefault("screen.rsi_period", 14)
	v.SetDefault("screen.interval", "1h")
	v.SetDefault("screen.lookback", 30*24*time.Hour)
	v.SetDefault("screen.pause", 120*time.Millisecond)

	v.SetDefault("alert.timezone", "Europe/Amsterdam")

	v.SetDefault("notify.sink", "telegram")
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.telegram.base_url", "https://api.telegram.org")
	v.SetDefault("notify.kafka.brokers", []string{})
	v.SetDefault("notify.kafka.topic", "dipwatch.alerts")
	v.SetDefault("notify.kafka.target", "dipwatch")

	v.SetDefault("schedule.every", time.Duration(0))
	v.SetDefault("server.addr", "")

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
	v.SetDefault("log.output", lc.Output)
	v.SetDefault("log.file_path", lc.FilePath)
	v.SetDefault("log.max_size_mb", lc.MaxSizeMB)
	v.SetDefault("log.max_backups", lc.MaxBackups)
	v.SetDefault("log.max_age_days", lc.MaxAgeDays)
	v.SetDefault("log.compress", lc.Compress)
	v.SetDefault("log.with_caller", lc.WithCaller)
}

// flag name -> config key
var flagKeys = map[string]string{
	"top-n":        "screen.top_n",
	"near-low-pct": "screen.near_low_pct",
	"rsi-max":      "screen.rsi_max",
	"interval":     "screen.interval",
	"lookback":     "screen.lookback",
	"pause":        "screen.pause",
	"quote":        "exchange.quote",
	"sink":         "notify.sink",
	"every":        "schedule.every",
	"addr":         "server.addr",
	"log-level":    "log.level",
}

// Flags returns the command-line surface. Unset flags never override
// lower-precedence sources.
func Flags() *pflag.FlagSet {
	set := pflag.NewFlagSet("dipwatch", pflag.ContinueOnError)
	set.String("config", "", "optional config file (yaml, toml or json)")
	set.String("env-file", ".env", "optional dotenv file")
	set.Int("top-n", 80, "number of most liquid markets to screen")
	set.Float64("near-low-pct", 3.0, "max percent above the window low")
	set.Float64("rsi-max", 35.0, "oscillator ceiling (exclusive)")
	set.String("interval", "1h", "candle interval")
	set.Duration("lookback", 30*24*time.Hour, "history window")
	set.Duration("pause", 120*time.Millisecond, "pause between candle requests")
	set.String("quote", "EUR", "settlement currency")
	set.String("sink", "telegram", "alert sink: telegram, kafka or log")
	set.Duration("every", 0, "repeat interval; 0 runs once")
	set.String("addr", "", "status/metrics listen address; empty disables")
	set.String("log-level", "info", "debug, info, warn or error")
	return set
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	envFile := ".env"
	cfgFile := ""
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
		if f := flags.Lookup("config"); f != nil {
			cfgFile = f.Value.String()
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("notify.telegram.token", EnvPrefix+"_NOTIFY_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("notify.telegram.chat_id", EnvPrefix+"_NOTIFY_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Screen.TopN <= 0 {
		errs = append(errs, fmt.Errorf("screen.top_n must be > 0, got %d", c.Screen.TopN))
	}
	if c.Screen.RSIPeriod <= 0 {
		errs = append(errs, fmt.Errorf("screen.rsi_period must be > 0, got %d", c.Screen.RSIPeriod))
	}
	if c.Screen.Lookback <= 0 {
		errs = append(errs, fmt.Errorf("screen.lookback must be > 0, got %s", c.Screen.Lookback))
	}
	if c.Screen.Pause < 0 {
		errs = append(errs, fmt.Errorf("screen.pause must be >= 0, got %s", c.Screen.Pause))
	}
	if _, ok := types.ParseTF(c.Screen.Interval); !ok {
		errs = append(errs, fmt.Errorf("screen.interval %q is not a known interval", c.Screen.Interval))
	}
	if c.Schedule.Every < 0 {
		errs = append(errs, fmt.Errorf("schedule.every must be >= 0, got %s", c.Schedule.Every))
	}
	switch c.Notify.Sink {
	case "telegram", "kafka", "log":
	default:
		errs = append(errs, fmt.Errorf("notify.sink %q must be telegram, kafka or log", c.Notify.Sink))
	}
	if _, err := time.LoadLocation(c.Alert.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("alert.timezone: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) Interval() types.TF {
	tf, _ := types.ParseTF(c.Screen.Interval)
	return tf
}

// Location is the zone alert dates are rendered in; UTC if unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Alert.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Thresholds() market.Thresholds {
	return market.Thresholds{
		NearLowPct: decimal.NewFromFloat(c.Screen.NearLowPct),
		RSIMax:     decimal.NewFromFloat(c.Screen.RSIMax),
		RSIPeriod:  c.Screen.RSIPeriod,
		WindowTag:  WindowTag(c.Screen.Lookback),
	}
}

// WindowTag renders a lookback as "30d", or "36h" when not whole days.
func WindowTag(d time.Duration) string {
	day := 24 * time.Hour
	if d >= day && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	return d.String()
}

func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		FilePath:   c.Log.FilePath,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
		WithCaller: c.Log.WithCaller,
	}
}
