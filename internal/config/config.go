// Package config loads configs/config.yml with viper, applies defaults and
// PANEL_* environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"panelsound/internal/audio"
	"panelsound/internal/mapper"
	"panelsound/internal/panel"
	"panelsound/internal/serialport"
)

const envPrefix = "PANEL"

// Audio drivers.
const (
	DriverBeep = "beep"
	DriverLog  = "log"
)

type HTTP struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

type DB struct {
	Path string `mapstructure:"path"`
}

type Serial struct {
	Ports    []string `mapstructure:"ports"`
	Baud     int      `mapstructure:"baud"`
	Discover bool     `mapstructure:"discover"`
	Patterns []string `mapstructure:"patterns"`
}

type Panel struct {
	Controllers  []string `mapstructure:"controllers"`
	OfflineSound string   `mapstructure:"offline_sound"`
}

type Dispatch struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Audio struct {
	Driver      string       `mapstructure:"driver"`
	SampleRate  int          `mapstructure:"sample_rate"`
	SoundDir    string       `mapstructure:"sound_dir"`
	Clips       []string     `mapstructure:"clips"`
	Loopable    []string     `mapstructure:"loopable"`
	Catalog     []audio.Clip `mapstructure:"catalog"`
	CatalogFile string       `mapstructure:"catalog_file"`
}

// Sources maps the audio section onto catalog sources.
func (a Audio) Sources() audio.CatalogSources {
	return audio.CatalogSources{
		Clips:    a.Catalog,
		File:     a.CatalogFile,
		SoundDir: a.SoundDir,
		Names:    a.Clips,
		Loopable: a.Loopable,
	}
}

// Auth is disabled when PasswordHash is empty.
type Auth struct {
	Secret       string        `mapstructure:"secret"`
	PasswordHash string        `mapstructure:"password_hash"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

func (a Auth) Enabled() bool { return a.PasswordHash != "" }

type MQTT struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// Config is the whole process configuration.
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	HTTP     HTTP          `mapstructure:"http"`
	DB       DB            `mapstructure:"db"`
	Serial   Serial        `mapstructure:"serial"`
	Panel    Panel         `mapstructure:"panel"`
	Routes   []mapper.Rule `mapstructure:"routes"`
	Dispatch Dispatch      `mapstructure:"dispatch"`
	Audio    Audio         `mapstructure:"audio"`
	Auth     Auth          `mapstructure:"auth"`
	MQTT     MQTT          `mapstructure:"mqtt"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.port", "8080")
	v.SetDefault("db.path", "panel.db")
	v.SetDefault("serial.baud", serialport.DefaultBaud)
	v.SetDefault("serial.discover", true)
	v.SetDefault("serial.patterns", serialport.DefaultPatterns)
	v.SetDefault("panel.controllers", panel.DefaultControllers)
	v.SetDefault("panel.offline_sound", mapper.DefaultOfflineSound)
	v.SetDefault("dispatch.poll_interval", "10ms")
	v.SetDefault("audio.driver", DriverBeep)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.sound_dir", "sounds")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("mqtt.client_id", "panelsound")
	v.SetDefault("mqtt.topic", "panel")
}

// Load reads the config file at path. An empty path searches ./configs for
// config.yml; a missing file there falls back to defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = mapper.DefaultRules()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	table, err := mapper.NewTable(c.Routes)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	for _, id := range c.Panel.Controllers {
		if r, ok := table[id]; !ok || r.Strategy != mapper.StrategyReadiness {
			return fmt.Errorf("routes: controller %q needs a %s route", id, mapper.StrategyReadiness)
		}
	}
	switch c.Audio.Driver {
	case DriverBeep, DriverLog:
	default:
		return fmt.Errorf("audio.driver: unknown driver %q", c.Audio.Driver)
	}
	if c.Audio.Driver == DriverBeep && c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive")
	}
	if c.Dispatch.PollInterval <= 0 {
		return fmt.Errorf("dispatch.poll_interval must be positive")
	}
	if c.Auth.Enabled() && c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required when auth.password_hash is set")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}
