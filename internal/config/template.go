package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meteocli/wx/internal/output"
)

// starterTemplate is written by wx config init. Every key is optional;
// WX_* environment variables override any of them.
const starterTemplate = `# wx configuration
# Values here are overridden by WX_* environment variables and flags.

# Output format: auto, json, quiet, styled
format: auto

station:
  # OAuth client registration for the station API.
  client_id: ""
  client_secret: ""
  # device_id must be quoted: colons are YAML syntax.
  device_id: ""
  # base_url: https://api.netatmo.com
  # redirect_uri: http://127.0.0.1:8989/callback
  # scope: read_station

almanac:
  latitude: 0.0
  longitude: 0.0
  # timezone: Europe/Oslo

forecast:
  # zone: flz063
  # url: https://tgftp.nws.noaa.gov/data/forecasts/zone/ga/gaz001.txt
  # charset: latin-1

speech:
  # key: ""
  # language: en-us
`

// InitFile writes a starter config to path, refusing to overwrite.
// The directory is created with owner-only permissions since the file
// will hold client secrets.
func InitFile(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return output.ErrUsageHint(
			fmt.Sprintf("config already exists at %s", path),
			"Edit it directly or remove it first")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return output.ErrConfig(fmt.Sprintf("cannot create config directory: %v", err))
	}

	if err := os.WriteFile(path, []byte(starterTemplate), 0o600); err != nil {
		return output.ErrConfig(fmt.Sprintf("cannot write config: %v", err))
	}
	return nil
}
