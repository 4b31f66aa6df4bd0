package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Interface types.
const (
	InterfaceAPRSIS = "APRSIS"
	InterfaceKISS   = "KISS"
)

// Display modes.
const (
	DisplayText = "text"
	DisplayTUI  = "tui"
)

// Duration lets durations be written as "90s" or "1h" in the TOML file.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration
type Config struct {
	Station   StationConfig   `toml:"station"`
	Interface InterfaceConfig `toml:"interface"`
	Geo       GeoConfig       `toml:"geo"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Display   DisplayConfig   `toml:"display"`
	Map       MapConfig       `toml:"map"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// StationConfig holds settings specific to the user's station
type StationConfig struct {
	Callsign   string `toml:"callsign"`
	Passcode   int    `toml:"passcode"`
	GridSquare string `toml:"gridsquare"`
}

// InterfaceConfig selects where packets come from. Device is host:port or
// a serial device path for KISS.
type InterfaceConfig struct {
	Type     string `toml:"type"`
	Device   string `toml:"device"`
	BaudRate int    `toml:"baudrate"`
	Server   string `toml:"server"`
	Filter   string `toml:"filter"`
	// RadiusKm builds an r/ filter around the station gridsquare when no
	// explicit filter is set. Zero means the full feed.
	RadiusKm int `toml:"radius_km"`
}

type GeoConfig struct {
	ReverseGeo   bool     `toml:"reverse_geo"`
	NominatimURL string   `toml:"nominatim_url"`
	UserAgent    string   `toml:"user_agent"`
	CacheTTL     Duration `toml:"cache_ttl"`
	Timeout      Duration `toml:"timeout"`
	RedisAddr    string   `toml:"redis_addr"`
	RedisPass    string   `toml:"redis_password"`
	RedisDB      int      `toml:"redis_db"`
}

type TelemetryConfig struct {
	CleanInterval Duration `toml:"clean_interval"`
	MaxAge        Duration `toml:"max_age"`
}

type DisplayConfig struct {
	Mode    string `toml:"mode"`
	LogFile string `toml:"log_file"`
}

// MapConfig holds map-specific settings
type MapConfig struct {
	ShapePath   string  `toml:"shape_path"`
	DefaultZoom float64 `toml:"defaultzoom"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// Default returns the configuration used for anything the file leaves out.
func Default() Config {
	return Config{
		Station: StationConfig{Callsign: "N0CALL", Passcode: -1},
		Interface: InterfaceConfig{
			Type:     InterfaceAPRSIS,
			Server:   "rotate.aprs.net",
			BaudRate: 9600,
		},
		Geo: GeoConfig{
			NominatimURL: "https://nominatim.openstreetmap.org",
			UserAgent:    "aprsnoop",
			CacheTTL:     Duration{time.Hour},
			Timeout:      Duration{10 * time.Second},
		},
		Telemetry: TelemetryConfig{
			CleanInterval: Duration{60 * time.Second},
			MaxAge:        Duration{time.Hour},
		},
		Display: DisplayConfig{Mode: DisplayText, LogFile: "aprsnoop.log"},
		Map:     MapConfig{ShapePath: "mapdata/ne_10m_admin_1_states_provinces.shp", DefaultZoom: 1},
	}
}

// Load reads the configuration. A missing file at path is not an error;
// defaults and the environment still apply. A .env file in the working
// directory is loaded first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	conf := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("Config file %s not found, using defaults", path)
		case err != nil:
			return conf, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &conf); err != nil {
				return conf, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&conf, os.LookupEnv); err != nil {
		return conf, err
	}
	conf.Interface.Type = strings.ToUpper(conf.Interface.Type)
	conf.Display.Mode = strings.ToLower(conf.Display.Mode)
	return conf, conf.Validate()
}

// applyEnv overrides values from APRSNOOP_* variables.
func applyEnv(conf *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup("APRSNOOP_" + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup("APRSNOOP_" + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APRSNOOP_%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("CALLSIGN", &conf.Station.Callsign)
	str("GRIDSQUARE", &conf.Station.GridSquare)
	str("INTERFACE", &conf.Interface.Type)
	str("DEVICE", &conf.Interface.Device)
	str("SERVER", &conf.Interface.Server)
	str("FILTER", &conf.Interface.Filter)
	str("REDIS_ADDR", &conf.Geo.RedisAddr)
	str("REDIS_PASSWORD", &conf.Geo.RedisPass)
	str("METRICS_LISTEN", &conf.Metrics.Listen)
	if err := num("PASSCODE", &conf.Station.Passcode); err != nil {
		return err
	}
	if v, ok := lookup("APRSNOOP_REVERSE_GEO"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("APRSNOOP_REVERSE_GEO: %w", err)
		}
		conf.Geo.ReverseGeo = b
	}
	return nil
}

// Validate rejects configurations the program cannot run with.
func (c Config) Validate() error {
	switch strings.ToUpper(c.Interface.Type) {
	case InterfaceAPRSIS:
		if c.Station.Callsign == "" {
			return fmt.Errorf("station.callsign is required for APRS-IS")
		}
		if c.Interface.Server == "" {
			return fmt.Errorf("interface.server is required for APRS-IS")
		}
	case InterfaceKISS:
		if c.Interface.Device == "" {
			return fmt.Errorf("interface.device is required for KISS")
		}
		if c.Interface.BaudRate <= 0 {
			return fmt.Errorf("interface.baudrate must be positive")
		}
	default:
		return fmt.Errorf("unknown interface type: %q", c.Interface.Type)
	}

	switch strings.ToLower(c.Display.Mode) {
	case DisplayText, DisplayTUI:
	default:
		return fmt.Errorf("unknown display mode: %q", c.Display.Mode)
	}

	for name, d := range map[string]time.Duration{
		"geo.cache_ttl":            c.Geo.CacheTTL.Duration,
		"geo.timeout":              c.Geo.Timeout.Duration,
		"telemetry.clean_interval": c.Telemetry.CleanInterval.Duration,
		"telemetry.max_age":        c.Telemetry.MaxAge.Duration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Interface.RadiusKm < 0 {
		return fmt.Errorf("interface.radius_km must not be negative")
	}
	return nil
}
