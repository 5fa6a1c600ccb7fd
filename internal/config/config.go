// Package config provides layered configuration loading.
//
// Precedence: flags > environment > config file > defaults. The config
// file is YAML at $XDG_CONFIG_HOME/wx/config.yaml (or --config PATH).
// A malformed file is a fatal configuration error, never silently skipped:
// sending tokens to a half-configured endpoint is worse than stopping.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meteocli/wx/internal/hostutil"
	"github.com/meteocli/wx/internal/output"
)

// StationConfig configures the weather station API and its OAuth client.
type StationConfig struct {
	BaseURL      string `yaml:"base_url" json:"base_url"`
	AuthURL      string `yaml:"auth_url" json:"auth_url"`
	TokenURL     string `yaml:"token_url" json:"token_url"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret,omitempty"`
	RedirectURI  string `yaml:"redirect_uri" json:"redirect_uri"`
	DeviceID     string `yaml:"device_id" json:"device_id,omitempty"`
	Scope        string `yaml:"scope" json:"scope"`
}

// AlmanacConfig configures the sunrise/sunset service and default location.
type AlmanacConfig struct {
	BaseURL   string  `yaml:"base_url" json:"base_url"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Timezone  string  `yaml:"timezone" json:"timezone,omitempty"`
}

// ForecastConfig configures the zone forecast text feed.
type ForecastConfig struct {
	URL     string `yaml:"url" json:"url"`
	Charset string `yaml:"charset" json:"charset"`
	Zone    string `yaml:"zone" json:"zone,omitempty"`
}

// SpeechConfig configures the text-to-speech service.
type SpeechConfig struct {
	URL      string `yaml:"url" json:"url"`
	Key      string `yaml:"key" json:"key,omitempty"`
	Language string `yaml:"language" json:"language"`
	Voice    string `yaml:"voice" json:"voice,omitempty"`
	Codec    string `yaml:"codec" json:"codec"`
	Quality  string `yaml:"quality" json:"quality"`
	Rate     int    `yaml:"rate" json:"rate,omitempty"`
}

// CredentialsConfig configures where OAuth credentials are persisted.
type CredentialsConfig struct {
	Backend string `yaml:"backend" json:"backend,omitempty"` // "file" (default) or "keyring"
	Dir     string `yaml:"dir" json:"dir,omitempty"`
}

// Config holds the resolved configuration.
type Config struct {
	// Output settings
	Format  string `yaml:"format" json:"format"`
	Verbose int    `yaml:"verbose" json:"verbose,omitempty"`

	Station     StationConfig     `yaml:"station" json:"station"`
	Almanac     AlmanacConfig     `yaml:"almanac" json:"almanac"`
	Forecast    ForecastConfig    `yaml:"forecast" json:"forecast"`
	Speech      SpeechConfig      `yaml:"speech" json:"speech"`
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Path is the config file actually loaded, empty when none existed.
	Path string `yaml:"-" json:"-"`

	// Sources tracks where each value came from (for wx config).
	Sources map[string]string `yaml:"-" json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values that override config.
type FlagOverrides struct {
	Format  string
	Verbose *int
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Format: "auto",
		Station: StationConfig{
			BaseURL:     "https://api.netatmo.com",
			RedirectURI: "http://127.0.0.1:8989/callback",
			Scope:       "read_station",
		},
		Almanac: AlmanacConfig{
			BaseURL: "https://api.sunrise-sunset.org",
		},
		Forecast: ForecastConfig{
			Charset: "latin-1",
		},
		Speech: SpeechConfig{
			URL:      "https://api.voicerss.org",
			Language: "en-us",
			Codec:    "mp3",
			Quality:  "16khz_16bit_mono",
		},
		Credentials: CredentialsConfig{
			Backend: "file",
		},
		Sources: make(map[string]string),
	}
}

// Load loads configuration with proper precedence.
// An explicit path must exist; the default path is optional.
func Load(path string, overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := loadFromFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)
	finalize(cfg)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		if explicit {
			return output.ErrConfig(fmt.Sprintf("cannot read config at %s: %v", path, err))
		}
		return nil // Default file doesn't exist, defaults apply
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return output.ErrConfigHint(
			fmt.Sprintf("malformed config at %s: %v", path, err),
			"Fix the YAML or move the file aside")
	}

	cfg.Path = path

	if v := getString(raw, "format"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceFile)
	}
	if v, ok := getInt(raw, "verbose"); ok {
		cfg.Verbose = v
		cfg.Sources["verbose"] = string(SourceFile)
	}

	applyStation(cfg, section(raw, "station"))
	applyAlmanac(cfg, section(raw, "almanac"))
	applyForecast(cfg, section(raw, "forecast"))
	applySpeech(cfg, section(raw, "speech"))
	applyCredentials(cfg, section(raw, "credentials"))

	return nil
}

func applyStation(cfg *Config, m map[string]any) {
	setString(m, "base_url", &cfg.Station.BaseURL, cfg.Sources, "station.base_url")
	setString(m, "auth_url", &cfg.Station.AuthURL, cfg.Sources, "station.auth_url")
	setString(m, "token_url", &cfg.Station.TokenURL, cfg.Sources, "station.token_url")
	setString(m, "client_id", &cfg.Station.ClientID, cfg.Sources, "station.client_id")
	setString(m, "client_secret", &cfg.Station.ClientSecret, cfg.Sources, "station.client_secret")
	setString(m, "redirect_uri", &cfg.Station.RedirectURI, cfg.Sources, "station.redirect_uri")
	setString(m, "device_id", &cfg.Station.DeviceID, cfg.Sources, "station.device_id")
	setString(m, "scope", &cfg.Station.Scope, cfg.Sources, "station.scope")
}

func applyAlmanac(cfg *Config, m map[string]any) {
	setString(m, "base_url", &cfg.Almanac.BaseURL, cfg.Sources, "almanac.base_url")
	setFloat(m, "latitude", &cfg.Almanac.Latitude, cfg.Sources, "almanac.latitude")
	setFloat(m, "longitude", &cfg.Almanac.Longitude, cfg.Sources, "almanac.longitude")
	setString(m, "timezone", &cfg.Almanac.Timezone, cfg.Sources, "almanac.timezone")
}

func applyForecast(cfg *Config, m map[string]any) {
	setString(m, "url", &cfg.Forecast.URL, cfg.Sources, "forecast.url")
	setString(m, "charset", &cfg.Forecast.Charset, cfg.Sources, "forecast.charset")
	setString(m, "zone", &cfg.Forecast.Zone, cfg.Sources, "forecast.zone")
}

func applySpeech(cfg *Config, m map[string]any) {
	setString(m, "url", &cfg.Speech.URL, cfg.Sources, "speech.url")
	setString(m, "key", &cfg.Speech.Key, cfg.Sources, "speech.key")
	setString(m, "language", &cfg.Speech.Language, cfg.Sources, "speech.language")
	setString(m, "voice", &cfg.Speech.Voice, cfg.Sources, "speech.voice")
	setString(m, "codec", &cfg.Speech.Codec, cfg.Sources, "speech.codec")
	setString(m, "quality", &cfg.Speech.Quality, cfg.Sources, "speech.quality")
	if v, ok := getInt(m, "rate"); ok {
		cfg.Speech.Rate = v
		cfg.Sources["speech.rate"] = string(SourceFile)
	}
}

func applyCredentials(cfg *Config, m map[string]any) {
	setString(m, "backend", &cfg.Credentials.Backend, cfg.Sources, "credentials.backend")
	setString(m, "dir", &cfg.Credentials.Dir, cfg.Sources, "credentials.dir")
}

// LoadFromEnv loads configuration from WX_* environment variables.
// Exported so tests can exercise the overlay in isolation.
func LoadFromEnv(cfg *Config) {
	envString := func(name string, dst *string, key string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
			cfg.Sources[key] = string(SourceEnv)
		}
	}

	envString("WX_FORMAT", &cfg.Format, "format")
	if v := os.Getenv("WX_VERBOSE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 2 {
			cfg.Verbose = n
			cfg.Sources["verbose"] = string(SourceEnv)
		}
	}

	envString("WX_STATION_BASE_URL", &cfg.Station.BaseURL, "station.base_url")
	envString("WX_STATION_AUTH_URL", &cfg.Station.AuthURL, "station.auth_url")
	envString("WX_STATION_TOKEN_URL", &cfg.Station.TokenURL, "station.token_url")
	envString("WX_STATION_CLIENT_ID", &cfg.Station.ClientID, "station.client_id")
	envString("WX_STATION_CLIENT_SECRET", &cfg.Station.ClientSecret, "station.client_secret")
	envString("WX_STATION_REDIRECT_URI", &cfg.Station.RedirectURI, "station.redirect_uri")
	envString("WX_STATION_DEVICE_ID", &cfg.Station.DeviceID, "station.device_id")
	envString("WX_STATION_SCOPE", &cfg.Station.Scope, "station.scope")

	envString("WX_ALMANAC_BASE_URL", &cfg.Almanac.BaseURL, "almanac.base_url")
	envString("WX_ALMANAC_TIMEZONE", &cfg.Almanac.Timezone, "almanac.timezone")
	if v := os.Getenv("WX_ALMANAC_LAT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Almanac.Latitude = f
			cfg.Sources["almanac.latitude"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("WX_ALMANAC_LON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Almanac.Longitude = f
			cfg.Sources["almanac.longitude"] = string(SourceEnv)
		}
	}

	envString("WX_FORECAST_URL", &cfg.Forecast.URL, "forecast.url")
	envString("WX_FORECAST_CHARSET", &cfg.Forecast.Charset, "forecast.charset")
	envString("WX_FORECAST_ZONE", &cfg.Forecast.Zone, "forecast.zone")

	envString("WX_SPEECH_URL", &cfg.Speech.URL, "speech.url")
	envString("WX_SPEECH_KEY", &cfg.Speech.Key, "speech.key")
	envString("WX_SPEECH_LANGUAGE", &cfg.Speech.Language, "speech.language")
	envString("WX_SPEECH_VOICE", &cfg.Speech.Voice, "speech.voice")

	envString("WX_CREDENTIALS_BACKEND", &cfg.Credentials.Backend, "credentials.backend")
	envString("WX_CREDENTIALS_DIR", &cfg.Credentials.Dir, "credentials.dir")
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	if o.Verbose != nil {
		cfg.Verbose = *o.Verbose
		cfg.Sources["verbose"] = string(SourceFlag)
	}
}

// finalize normalizes URLs and fills derived values after all layers applied.
func finalize(cfg *Config) {
	cfg.Station.BaseURL = NormalizeBaseURL(hostutil.Normalize(cfg.Station.BaseURL))
	cfg.Almanac.BaseURL = NormalizeBaseURL(hostutil.Normalize(cfg.Almanac.BaseURL))
	cfg.Speech.URL = NormalizeBaseURL(hostutil.Normalize(cfg.Speech.URL))

	// OAuth endpoints derive from the station base URL unless set explicitly.
	if cfg.Station.AuthURL == "" {
		cfg.Station.AuthURL = cfg.Station.BaseURL + "/oauth2/authorize"
	}
	if cfg.Station.TokenURL == "" {
		cfg.Station.TokenURL = cfg.Station.BaseURL + "/oauth2/token"
	}

	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = "file"
	}
	if cfg.Credentials.Dir == "" {
		cfg.Credentials.Dir = Dir()
	}

	if cfg.Verbose < 0 {
		cfg.Verbose = 0
	}
	if cfg.Verbose > 2 {
		cfg.Verbose = 2
	}
}

// ValidateOAuth reports missing station OAuth settings as a config error.
// Authorization cannot start without a complete client registration.
func (s *StationConfig) ValidateOAuth() error {
	var missing []string
	if s.ClientID == "" {
		missing = append(missing, "station.client_id")
	}
	if s.ClientSecret == "" {
		missing = append(missing, "station.client_secret")
	}
	if s.AuthURL == "" {
		missing = append(missing, "station.auth_url")
	}
	if s.TokenURL == "" {
		missing = append(missing, "station.token_url")
	}
	if s.RedirectURI == "" {
		missing = append(missing, "station.redirect_uri")
	}
	if len(missing) == 0 {
		return nil
	}
	return output.ErrConfigHint(
		"incomplete station OAuth configuration: missing "+strings.Join(missing, ", "),
		"Set the missing keys in "+DefaultPath()+" or the matching WX_* variables")
}

// Redacted returns a copy safe for display: secrets are masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Station.ClientSecret != "" {
		out.Station.ClientSecret = "[redacted]"
	}
	if out.Speech.Key != "" {
		out.Speech.Key = "[redacted]"
	}
	return &out
}

// Dir returns the wx config directory path.
func Dir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "wx")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// NormalizeBaseURL ensures consistent URL format (no trailing slash).
func NormalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}

// Raw YAML accessors. yaml.v3 decodes mappings into map[string]any.

func section(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

func getFloat(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func setString(m map[string]any, key string, dst *string, sources map[string]string, name string) {
	if v := getString(m, key); v != "" {
		*dst = v
		sources[name] = string(SourceFile)
	}
}

func setFloat(m map[string]any, key string, dst *float64, sources map[string]string, name string) {
	if v, ok := getFloat(m, key); ok {
		*dst = v
		sources[name] = string(SourceFile)
	}
}
