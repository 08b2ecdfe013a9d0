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

// Package migrate imports per-game overrides from Legendary's config.ini
// into explicit settings documents.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// LegendaryConfigFile is the name of Legendary's config inside its config
// directory.
const LegendaryConfigFile = "config.ini"

// legendarySection holds Legendary's own options, not a game.
const legendarySection = "Legendary"

type Result struct {
	Imported []string
	// Skipped games already had a settings document.
	Skipped []string
}

// LegendaryINI reads config.ini and writes an explicit settings document
// for every game section in it. Each document starts from the current
// global values so the game keeps running the way it did under Legendary.
// A missing file is not an error.
func LegendaryINI(fsys afero.Fs, iniPath string, store *settings.Store) (Result, error) {
	var res Result

	data, err := afero.ReadFile(fsys, iniPath)
	if errors.Is(err, fs.ErrNotExist) {
		return res, nil
	} else if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", iniPath, err)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowBooleanKeys:    true,
	}, data)
	if err != nil {
		return res, fmt.Errorf("failed to parse %s: %w", iniPath, err)
	}

	global, err := store.EffectiveSettings(settings.GlobalScope)
	if err != nil {
		return res, fmt.Errorf("failed to load global settings: %w", err)
	}
	// a degraded global document can still carry legacy keys that strict
	// validation rejects
	base := settings.KnownValues(global.Values)
	applyLegendaryDefaults(base, cfg.Section(legendarySection))

	for _, sec := range cfg.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection || name == legendarySection || strings.Contains(name, ".") {
			continue
		}

		exists, err := afero.Exists(fsys, store.Path(name))
		if err != nil {
			return res, fmt.Errorf("failed to check settings for %s: %w", name, err)
		}
		if exists {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		values := maps.Clone(base)
		values["winePrefix"] = settings.GamePrefix(stringValue(base, "defaultWinePrefix"), name)
		applyGameSection(values, sec)
		if env, err := cfg.GetSection(name + ".env"); err == nil {
			applyEnv(values, name, env)
		}

		if _, err := settings.Validate(values); err != nil {
			log.Warn().Err(err).Msgf("skipping legendary config for %s", name)
			continue
		}

		doc := &settings.Document{
			Scope:    name,
			Version:  settings.CurrentVersion,
			Explicit: true,
			Values:   values,
		}
		if err := store.Flush(doc); err != nil {
			return res, fmt.Errorf("failed to write settings for %s: %w", name, err)
		}
		log.Info().Msgf("imported legendary config for %s", name)
		res.Imported = append(res.Imported, name)
	}

	return res, nil
}

func stringValue(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return s
}

func applyLegendaryDefaults(values map[string]any, sec *ini.Section) {
	if k := sec.Key("locale"); k.String() != "" {
		lang, _, _ := strings.Cut(k.String(), "-")
		values["language"] = lang
	}
	if n, err := sec.Key("max_workers").Int(); err == nil && n > 0 {
		values["maxWorkers"] = float64(n)
	}
	if dir := sec.Key("install_dir").String(); dir != "" {
		values["defaultInstallPath"] = dir
	}
}

func applyGameSection(values map[string]any, sec *ini.Section) {
	if bin := sec.Key("wine_executable").String(); bin != "" {
		kind := "wine"
		if filepath.Base(bin) == "proton" {
			kind = "proton"
		}
		values["wineVersion"] = map[string]any{
			"bin":  bin,
			"name": "Custom - " + bin,
			"type": kind,
		}
	}
	if prefix := sec.Key("wine_prefix").String(); prefix != "" {
		values["winePrefix"] = prefix
	}
	if lang := sec.Key("language").String(); lang != "" {
		values["language"] = lang
	}
	if sec.HasKey("offline") {
		values["offlineMode"] = sec.Key("offline").MustBool(false)
	}
	if params := sec.Key("start_params").String(); params != "" {
		values["launcherArgs"] = params
	}
	if exe := sec.Key("override_exe").String(); exe != "" {
		values["targetExe"] = exe
	}
}

// applyEnv appends the section's variables to otherOptions. Values with
// whitespace can't be expressed there and are dropped.
func applyEnv(values map[string]any, appName string, sec *ini.Section) {
	opts := strings.Fields(stringValue(values, "otherOptions"))
	for _, k := range sec.Keys() {
		v := k.String()
		if strings.ContainsAny(v, " \t") {
			log.Warn().Msgf("dropping %s env %s: value contains whitespace", appName, k.Name())
			continue
		}
		opts = append(opts, k.Name()+"="+v)
	}
	values["otherOptions"] = strings.Join(opts, " ")
}
