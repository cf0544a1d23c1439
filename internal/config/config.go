package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig
	Capture CaptureConfig
	Spool   SpoolConfig
	Kiosk   KioskConfig
}

type ServerConfig struct {
	URL string // attendance service base URL (e.g., http://localhost:8001)
}

type CaptureConfig struct {
	Device  string // "file" or "snapshot"
	Path    string // image file or directory for the file device
	URL     string // snapshot endpoint for the snapshot device
	MaxSize int    // longest edge of submitted frames in pixels
}

type SpoolConfig struct {
	Path string // sqlite spool database path
}

type KioskConfig struct {
	Addr   string // kiosk listen address (default :8080)
	Secret string // cookie signing secret
	Title  string // banner shown on the kiosk pages
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envDefault(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			URL: os.Getenv("FACEGATE_URL"),
		},
		Capture: CaptureConfig{
			Device:  envDefault("FACEGATE_CAPTURE_DEVICE", "snapshot"),
			Path:    os.Getenv("FACEGATE_CAPTURE_PATH"),
			URL:     os.Getenv("FACEGATE_CAPTURE_URL"),
			MaxSize: envInt("FACEGATE_CAPTURE_MAX_SIZE", 1280),
		},
		Spool: SpoolConfig{
			Path: envDefault("FACEGATE_SPOOL_PATH", defaultSpoolPath()),
		},
		Kiosk: KioskConfig{
			Addr:   envDefault("FACEGATE_KIOSK_ADDR", ":8080"),
			Secret: os.Getenv("FACEGATE_KIOSK_SECRET"),
			Title:  envDefault("FACEGATE_KIOSK_TITLE", "Attendance"),
		},
	}
}

func defaultSpoolPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "facegate-spool.db"
	}
	return filepath.Join(dir, "facegate", "spool.db")
}

// station is the on-disk shape of a station file. Only set fields override
// the environment configuration.
type station struct {
	Server struct {
		URL string `yaml:"url"`
	} `yaml:"server"`
	Capture struct {
		Device  string `yaml:"device"`
		Path    string `yaml:"path"`
		URL     string `yaml:"url"`
		MaxSize int    `yaml:"max_size"`
	} `yaml:"capture"`
	Spool struct {
		Path string `yaml:"path"`
	} `yaml:"spool"`
	Kiosk struct {
		Addr   string `yaml:"addr"`
		Secret string `yaml:"secret"`
		Title  string `yaml:"title"`
	} `yaml:"kiosk"`
}

// ApplyStation overlays a YAML station file onto the configuration. A
// missing file is not an error so the same binary runs with or without one.
func (c *Config) ApplyStation(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read station file: %w", err)
	}

	var st station
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("could not parse station file %s: %w", path, err)
	}

	if st.Server.URL != "" {
		c.Server.URL = st.Server.URL
	}
	if st.Capture.Device != "" {
		c.Capture.Device = st.Capture.Device
	}
	if st.Capture.Path != "" {
		c.Capture.Path = st.Capture.Path
	}
	if st.Capture.URL != "" {
		c.Capture.URL = st.Capture.URL
	}
	if st.Capture.MaxSize > 0 {
		c.Capture.MaxSize = st.Capture.MaxSize
	}
	if st.Spool.Path != "" {
		c.Spool.Path = st.Spool.Path
	}
	if st.Kiosk.Addr != "" {
		c.Kiosk.Addr = st.Kiosk.Addr
	}
	if st.Kiosk.Secret != "" {
		c.Kiosk.Secret = st.Kiosk.Secret
	}
	if st.Kiosk.Title != "" {
		c.Kiosk.Title = st.Kiosk.Title
	}
	return nil
}
