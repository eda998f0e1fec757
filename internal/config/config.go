package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
	Demo    DemoConfig    `yaml:"demo"`
}

// ServerConfig points at the authorization server this client talks to.
type ServerConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

type DisplayConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	ColorScheme  string   `yaml:"color_scheme"`
	ShowEvents   bool     `yaml:"show_events"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	BufferSize int    `yaml:"buffer_size"`
}

// DemoConfig seeds the in-process stub authorization server used by the
// `demo` command and drives the loopback relying-party listener.
type DemoConfig struct {
	Host         string       `yaml:"host"`
	Port         int          `yaml:"port"`
	CallbackPort int          `yaml:"callback_port"`
	CallbackPath string       `yaml:"callback_path"`
	Users        []DemoUser   `yaml:"users"`
	Clients      []DemoClient `yaml:"clients"`
}

type DemoUser struct {
	CustomID string `yaml:"custom_id"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

type DemoClient struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	RedirectURIs []string `yaml:"redirect_uris"`
	Scope        string   `yaml:"scope"`
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads the YAML file at path, then layers env overrides and defaults.
// A .env file in the working directory is honored before env reads.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

func Default() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:8000"
	}
	if c.Server.Timeout.Duration == 0 {
		c.Server.Timeout.Duration = 15 * time.Second
	}

	if c.Display.TickInterval.Duration == 0 {
		c.Display.TickInterval.Duration = 500 * time.Millisecond
	}
	if c.Display.ColorScheme == "" {
		c.Display.ColorScheme = "default"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.BufferSize == 0 {
		c.Logging.BufferSize = 200
	}

	if c.Demo.Host == "" {
		c.Demo.Host = "127.0.0.1"
	}
	if c.Demo.Port == 0 {
		c.Demo.Port = 8000
	}
	if c.Demo.CallbackPort == 0 {
		c.Demo.CallbackPort = 8910
	}
	if c.Demo.CallbackPath == "" {
		c.Demo.CallbackPath = "/callback"
	}
	if len(c.Demo.Users) == 0 {
		c.Demo.Users = []DemoUser{
			{CustomID: "alice", Name: "Alice Example", Password: "password123"},
			{CustomID: "bob", Name: "Bob Example", Password: "hunter2hunter2"},
		}
	}
	if len(c.Demo.Clients) == 0 {
		callback := "http://" + c.Demo.Host + ":" + strconv.Itoa(c.Demo.CallbackPort) + c.Demo.CallbackPath
		c.Demo.Clients = []DemoClient{
			{
				ID:           "demo-app",
				Name:         "Demo Application",
				RedirectURIs: []string{callback},
				Scope:        "read write profile",
			},
		}
	}
}

func (c *Config) applyEnvOverrides() {
	if u := os.Getenv("UNIQUE_SERVER_URL"); u != "" {
		c.Server.URL = u
	}
	if timeout := os.Getenv("UNIQUE_SERVER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Server.Timeout.Duration = d
		}
	}

	if interval := os.Getenv("UNIQUE_DISPLAY_TICK_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			c.Display.TickInterval.Duration = d
		}
	}
	if scheme := os.Getenv("UNIQUE_DISPLAY_COLOR_SCHEME"); scheme != "" {
		c.Display.ColorScheme = scheme
	}
	if show := os.Getenv("UNIQUE_DISPLAY_SHOW_EVENTS"); show != "" {
		c.Display.ShowEvents = show == "true" || show == "1"
	}

	if level := os.Getenv("UNIQUE_LOGGING_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if size := os.Getenv("UNIQUE_LOGGING_BUFFER_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			c.Logging.BufferSize = s
		}
	}

	if host := os.Getenv("UNIQUE_DEMO_HOST"); host != "" {
		c.Demo.Host = host
	}
	if port := os.Getenv("UNIQUE_DEMO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Demo.Port = p
		}
	}
	if port := os.Getenv("UNIQUE_DEMO_CALLBACK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Demo.CallbackPort = p
		}
	}
	if path := os.Getenv("UNIQUE_DEMO_CALLBACK_PATH"); path != "" {
		c.Demo.CallbackPath = path
	}
}
