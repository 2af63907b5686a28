package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"panelsound/internal/mapper"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level: %q", cfg.LogLevel)
	}
	if cfg.Serial.Baud != 19200 || !cfg.Serial.Discover {
		t.Errorf("serial defaults: %+v", cfg.Serial)
	}
	if cfg.Dispatch.PollInterval != 10*time.Millisecond {
		t.Errorf("poll_interval: %v", cfg.Dispatch.PollInterval)
	}
	if cfg.Panel.OfflineSound != mapper.DefaultOfflineSound {
		t.Errorf("offline_sound: %q", cfg.Panel.OfflineSound)
	}
	if len(cfg.Panel.Controllers) != 2 {
		t.Errorf("controllers: %v", cfg.Panel.Controllers)
	}
	if len(cfg.Routes) != len(mapper.DefaultRules()) {
		t.Errorf("routes should default to the built-in table, got %d", len(cfg.Routes))
	}
	if cfg.Auth.Enabled() {
		t.Errorf("auth must be disabled without a password hash")
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
http:
  enabled: false
  port: "9090"
serial:
  ports: ["/dev/ttyUSB3"]
  baud: 115200
panel:
  controllers: [ctl-a]
  offline_sound: power_down
dispatch:
  poll_interval: 5ms
routes:
  - component: switch-1
    strategy: multi
    values:
      - {value: "1", sound: up}
      - {value: "0", sound: down}
  - component: ctl-a
    strategy: readiness
    sound: up
  - component: hum
    strategy: loop
    sound: hum
    play_value: "1"
    stop_value: "0"
audio:
  driver: log
  catalog:
    - {name: up, sound: up.wav}
    - {name: hum, sound: hum.wav, loopable: true}
mqtt:
  enabled: true
  broker: tcp://localhost:1883
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Enabled || cfg.HTTP.Port != "9090" {
		t.Errorf("http: %+v", cfg.HTTP)
	}
	if cfg.Serial.Ports[0] != "/dev/ttyUSB3" || cfg.Serial.Baud != 115200 {
		t.Errorf("serial: %+v", cfg.Serial)
	}
	if cfg.Dispatch.PollInterval != 5*time.Millisecond {
		t.Errorf("poll_interval: %v", cfg.Dispatch.PollInterval)
	}
	if len(cfg.Routes) != 3 || cfg.Routes[0].Values[1].Sound != "down" || cfg.Routes[2].Strategy != mapper.StrategyLoop {
		t.Errorf("routes: %+v", cfg.Routes)
	}
	if len(cfg.Audio.Catalog) != 2 || !cfg.Audio.Catalog[1].Loopable {
		t.Errorf("catalog: %+v", cfg.Audio.Catalog)
	}
	src := cfg.Audio.Sources()
	if len(src.Clips) != 2 {
		t.Errorf("sources: %+v", src)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Topic != "panel" {
		t.Errorf("mqtt: %+v", cfg.MQTT)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PANEL_HTTP_PORT", "7070")
	t.Setenv("PANEL_LOG_LEVEL", "warn")
	cfg, err := Load(writeConfig(t, "http:\n  port: \"8081\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != "7070" || cfg.LogLevel != "warn" {
		t.Fatalf("env overrides not applied: port=%q level=%q", cfg.HTTP.Port, cfg.LogLevel)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown strategy", "routes:\n  - {component: a, strategy: tree}\n", "unknown strategy"},
		{"duplicate route", "routes:\n  - {component: a, strategy: readiness, sound: x}\n  - {component: a, strategy: readiness, sound: y}\n", "duplicate"},
		{"bad driver", "audio:\n  driver: alsa\n", "audio.driver"},
		{"auth without secret", "auth:\n  password_hash: abc\n", "auth.secret"},
		{"mqtt without broker", "mqtt:\n  enabled: true\n", "mqtt.broker"},
		{"bad baud", "serial:\n  baud: 0\n", "serial.baud"},
		{"controller without readiness route", "panel:\n  controllers: [controller01, controller03]\n", `controller "controller03"`},
		{"controller routed as a switch", "panel:\n  controllers: [sw]\nroutes:\n  - {component: sw, strategy: direct, values: [{value: \"1\", sound: x}]}\n", `controller "sw"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error containing %q", err, tc.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("explicit missing file must fail")
	}
}
