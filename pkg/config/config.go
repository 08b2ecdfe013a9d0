// Zaparoo Launch
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Launch.
//
// Zaparoo Launch is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Launch is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Launch.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/adrg/xdg"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "LAUNCHCORE_CFG"
)

type Values struct {
	Paths        Paths     `toml:"paths,omitempty"`
	Network      Network   `toml:"network,omitempty"`
	Telemetry    Telemetry `toml:"telemetry,omitempty"`
	API          API       `toml:"api,omitempty"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

type Paths struct {
	Legendary       string `toml:"legendary,omitempty"`
	GOGDL           string `toml:"gogdl,omitempty"`
	GOGAuthConfig   string `toml:"gog_auth_config,omitempty"`
	LegendaryConfig string `toml:"legendary_config,omitempty"`
	StoreCache      string `toml:"store_cache,omitempty"`
	Settings        string `toml:"settings,omitempty"`
	Tools           string `toml:"tools,omitempty"`
	Logs            string `toml:"logs,omitempty"`
}

type Network struct {
	ProbeURL      string `toml:"probe_url,omitempty"`
	EpicStatusURL string `toml:"epic_status_url,omitempty"`
	CacheSeconds  int    `toml:"cache_seconds,omitempty"`
}

type Telemetry struct {
	DeviceID       string `toml:"device_id,omitempty"`
	DSN            string `toml:"dsn,omitempty"`
	ErrorReporting bool   `toml:"error_reporting"`
}

type API struct {
	Port           *int     `toml:"port,omitempty"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	AllowedIPs     []string `toml:"allowed_ips,omitempty"`
}

const (
	DefaultProbeURL      = "https://www.epicgames.com"
	DefaultEpicStatusURL = "https://status.epicgames.com/api/v2/components.json"
	defaultCacheSeconds  = 30
)

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Network: Network{
		ProbeURL:      DefaultProbeURL,
		EpicStatusURL: DefaultEpicStatusURL,
		CacheSeconds:  defaultCacheSeconds,
	},
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	if c.vals.Telemetry.DeviceID == "" {
		newID := uuid.New().String()
		c.vals.Telemetry.DeviceID = newID
		log.Info().Msgf("generated new device id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Dir is the directory holding the daemon config file.
func (c *Instance) Dir() string {
	return filepath.Dir(c.cfgPath)
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.ErrorReporting
}

// SentryDSN is where error reports go when reporting is enabled.
func (c *Instance) SentryDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.DSN
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.DeviceID
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Port == nil {
		return DefaultAPIPort
	}
	return *c.vals.API.Port
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.API.AllowedOrigins) == 0 {
		return []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return append([]string(nil), c.vals.API.AllowedOrigins...)
}

// AllowedIPs are the non-loopback clients admitted by the API.
func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.API.AllowedIPs...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// LegendaryBin is the Legendary CLI binary, looked up on PATH by default.
func (c *Instance) LegendaryBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.Legendary, "legendary")
}

// GOGDLBin is the GOGDL CLI binary, looked up on PATH by default.
func (c *Instance) GOGDLBin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.GOGDL, "gogdl")
}

func (c *Instance) GOGAuthConfig() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.GOGAuthConfig, filepath.Join(c.Dir(), "gog_store", "auth.json"))
}

func (c *Instance) LegendaryConfigDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.LegendaryConfig, filepath.Join(xdg.ConfigHome, "legendary"))
}

func (c *Instance) StoreCacheDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.StoreCache, filepath.Join(c.Dir(), "store_cache"))
}

// SettingsDir holds config.json and the GamesConfig directory.
func (c *Instance) SettingsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.Settings, c.Dir())
}

func (c *Instance) ToolsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.Tools, filepath.Join(xdg.DataHome, AppName, "tools"))
}

func (c *Instance) LogsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Paths.Logs, filepath.Join(xdg.StateHome, AppName, "logs"))
}

func (c *Instance) ProbeURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Network.ProbeURL, DefaultProbeURL)
}

func (c *Instance) EpicStatusURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orDefault(c.vals.Network.EpicStatusURL, DefaultEpicStatusURL)
}

// NetworkCacheTTL is how long reachability results are reused.
func (c *Instance) NetworkCacheTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Network.CacheSeconds <= 0 {
		return defaultCacheSeconds * time.Second
	}
	return time.Duration(c.vals.Network.CacheSeconds) * time.Second
}
