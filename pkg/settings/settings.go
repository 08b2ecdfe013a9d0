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

// Package settings stores the versioned global and per-game settings
// documents and resolves the effective settings used to run a game.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/validation"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// WineVersion is the compatibility layer selected for a scope. Type is one
// of "wine", "proton" or "crossover"; an empty Bin means none is selected.
type WineVersion struct {
	Bin        string `json:"bin"`
	Name       string `json:"name"`
	Type       string `json:"type" validate:"omitempty,oneof=wine proton crossover"`
	Wineserver string `json:"wineserver,omitempty"`
}

// Settings is the typed view of a settings document. Field names follow the
// JSON keys written to disk.
type Settings struct {
	WineVersion         WineVersion `json:"wineVersion"`
	WinePrefix          string      `json:"winePrefix"`
	WineCrossoverBottle string      `json:"wineCrossoverBottle"`
	DefaultInstallPath  string      `json:"defaultInstallPath"`
	DefaultWinePrefix   string      `json:"defaultWinePrefix"`
	LauncherArgs        string      `json:"launcherArgs"`
	OtherOptions        string      `json:"otherOptions"`
	TargetExe           string      `json:"targetExe"`
	Language            string      `json:"language"`
	CustomWinePaths     []string    `json:"customWinePaths"`
	FsrSharpness        int         `json:"fsrSharpness" validate:"gte=0,lte=5"`
	MaxWorkers          int         `json:"maxWorkers" validate:"gte=0"`
	AutoInstallDxvk     bool        `json:"autoInstallDxvk"`
	AutoInstallVkd3d    bool        `json:"autoInstallVkd3d"`
	AudioFix            bool        `json:"audioFix"`
	EnableEsync         bool        `json:"enableEsync"`
	EnableFsync         bool        `json:"enableFsync"`
	EnableFSR           bool        `json:"enableFSR"`
	EnableResizableBar  bool        `json:"enableResizableBar"`
	NvidiaPrime         bool        `json:"nvidiaPrime"`
	ShowFps             bool        `json:"showFps"`
	ShowMangohud        bool        `json:"showMangohud"`
	UseGameMode         bool        `json:"useGameMode"`
	UseSteamRuntime     bool        `json:"useSteamRuntime"`
	OfflineMode         bool        `json:"offlineMode"`
	DiscordRPC          bool        `json:"discordRPC"`
}

// ErrInvalidSettings is returned by WriteSettings when the values don't
// decode into Settings or fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FactoryDefaults are the global settings written when no global document
// exists yet. Paths keep their "~" and are expanded at launch time.
func FactoryDefaults() Settings {
	return Settings{
		WinePrefix:          "~/.wine",
		WineCrossoverBottle: "Heroic",
		DefaultInstallPath:  "~/Games/Heroic",
		DefaultWinePrefix:   "~/Games/Heroic/Prefixes",
		Language:            "en",
		CustomWinePaths:     []string{},
		FsrSharpness:        2,
		AutoInstallDxvk:     true,
		AutoInstallVkd3d:    true,
		EnableEsync:         true,
		EnableFsync:         true,
	}
}

// ToValues converts typed settings into the document value map. The JSON
// round trip keeps numbers as float64 so freshly built and reloaded maps
// compare equal.
func ToValues(s *Settings) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return values, nil
}

var knownKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeFor[Settings]()
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}()

// KnownValues returns a copy of values holding only the keys Settings
// defines. Legacy keys from a degraded document are dropped.
func KnownValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if _, ok := knownKeys[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Decode converts document values into Settings. Unknown keys are ignored
// so legacy documents keep loading.
func Decode(values map[string]any) (Settings, error) {
	var s Settings
	if err := decode(values, &s, false); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate decodes values strictly, rejecting unknown keys, and runs the
// struct validation rules.
func Validate(values map[string]any) (Settings, error) {
	var s Settings
	if err := decode(values, &s, true); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	if err := validate.Struct(&s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, validation.NewError(validationErrors))
		}
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	return s, nil
}

func decode(values map[string]any, dest *Settings, strict bool) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		MatchName: func(mapKey, fieldName string) bool {
			return mapKey == fieldName
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return nil
}

// GamePrefix is the prefix a new per-game document points at.
func GamePrefix(defaultWinePrefix, appName string) string {
	if defaultWinePrefix == "" {
		defaultWinePrefix = FactoryDefaults().DefaultWinePrefix
	}
	return filepath.ToSlash(filepath.Join(defaultWinePrefix, appName))
}
