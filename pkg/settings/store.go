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

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	GlobalFile     = "config.json"
	GamesConfigDir = "GamesConfig"
)

// ErrInvalidScope is returned for app names that can't be used as a file
// name.
var ErrInvalidScope = errors.New("invalid settings scope")

// EffectiveSettings are the settings a game runs with.
type EffectiveSettings struct {
	// Values holds the resolved key set. For explicit documents it's
	// exactly the document's own keys.
	Values   map[string]any
	AppName  string
	Version  Version
	Settings Settings
	Explicit bool
}

// Store caches one Document per scope and owns reading, upgrading and
// flushing the files behind them.
type Store struct {
	fs          afero.Fs
	defaultWine func() WineVersion
	docs        map[string]*Document
	dir         string
	mu          syncutil.Mutex
}

type Option func(*Store)

// WithDefaultWine sets the runtime picked for a freshly created global
// document.
func WithDefaultWine(fn func() WineVersion) Option {
	return func(s *Store) {
		s.defaultWine = fn
	}
}

func NewStore(fsys afero.Fs, dir string, opts ...Option) *Store {
	s := &Store{
		fs:   fsys,
		dir:  dir,
		docs: make(map[string]*Document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file backing a scope.
func (s *Store) Path(scope string) string {
	if scope == GlobalScope {
		return filepath.Join(s.dir, GlobalFile)
	}
	return filepath.Join(s.dir, GamesConfigDir, scope+".json")
}

func checkScope(scope string) error {
	if scope == "" || scope == "." || scope == ".." ||
		strings.ContainsAny(scope, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return nil
}

// Get returns the cached document for scope, loading it on first use. A
// missing file is created from the factory defaults. Outdated documents are
// upgraded before they're returned.
func (s *Store) Get(scope string) (*Document, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(scope)
}

func (s *Store) Global() (*Document, error) {
	return s.Get(GlobalScope)
}

func (s *Store) Game(appName string) (*Document, error) {
	if appName == GlobalScope {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidScope, appName)
	}
	return s.Get(appName)
}

func (s *Store) getLocked(scope string) (*Document, error) {
	if doc, ok := s.docs[scope]; ok {
		return doc, nil
	}

	doc, err := s.load(scope)
	if err != nil {
		return nil, err
	}
	s.docs[scope] = doc
	return doc, nil
}

func (s *Store) load(scope string) (*Document, error) {
	path := s.Path(scope)

	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Msgf("creating default settings for %s", scope)
		doc, err := s.factoryLocked(scope)
		if err != nil {
			return nil, err
		}
		if err := s.writeLocked(doc); err != nil {
			return nil, err
		}
		return doc, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	doc, err := parseFile(data, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, path, err)
	}

	if doc.Version == CurrentVersion {
		return doc, nil
	}

	if s.upgradeLocked(doc) {
		return s.load(scope)
	}

	log.Warn().Msgf("using %s settings at version %s", scope, doc.Version)
	doc.Degraded = true
	return doc, nil
}

func parseFile(data []byte, scope string) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if raw == nil {
		return nil, errors.New("settings document is null")
	}

	version, err := readVersion(raw)
	if err != nil {
		return nil, err
	}

	l, ok := loaders[version]
	if !ok {
		return parseUnknown(raw, scope, version)
	}
	return l.parse(raw, scope)
}

// Upgrade rewrites doc to the next schema version. It returns true only if
// a newer document was written; the next Get reloads it. Failures are
// logged and leave the document as it was.
func (s *Store) Upgrade(doc *Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.upgradeLocked(doc) {
		return false
	}
	delete(s.docs, doc.Scope)
	return true
}

func (s *Store) upgradeLocked(doc *Document) bool {
	l, ok := loaders[doc.Version]
	if !ok {
		log.Warn().Err(ErrUpgradeUnavailable).
			Msgf("no loader for %s settings version %q", doc.Scope, doc.Version)
		return false
	}
	if l.upgrade == nil {
		return false
	}

	upgraded, err := l.upgrade(doc)
	if err != nil {
		log.Warn().Err(errors.Join(ErrUpgradeUnavailable, err)).
			Msgf("failed to upgrade %s settings from %s", doc.Scope, doc.Version)
		return false
	}

	if err := s.writeLocked(upgraded); err != nil {
		log.Warn().Err(err).Msgf("failed to write upgraded %s settings", doc.Scope)
		return false
	}

	log.Info().Msgf("upgraded %s settings from %s to %s", doc.Scope, doc.Version, l.next)
	return true
}

// Flush writes the complete document to disk and makes it the cached
// snapshot for its scope.
func (s *Store) Flush(doc *Document) error {
	if err := checkScope(doc.Scope); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := doc.clone()
	if err := s.writeLocked(snapshot); err != nil {
		return err
	}
	s.docs[doc.Scope] = snapshot
	return nil
}

func (s *Store) writeLocked(doc *Document) error {
	data, err := doc.marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(s.fs, s.Path(doc.Scope), data)
}

func writeFileAtomic(fsys afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := afero.TempFile(fsys, dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func (s *Store) factoryLocked(scope string) (*Document, error) {
	if scope == GlobalScope {
		defaults := FactoryDefaults()
		if s.defaultWine != nil {
			defaults.WineVersion = s.defaultWine()
		}
		values, err := ToValues(&defaults)
		if err != nil {
			return nil, err
		}
		return &Document{Scope: scope, Version: CurrentVersion, Values: values}, nil
	}

	global, err := s.getLocked(GlobalScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load global settings: %w", err)
	}
	prefixRoot, _ := global.Values["defaultWinePrefix"].(string)

	return &Document{
		Scope:   scope,
		Version: CurrentVersion,
		Values: map[string]any{
			"winePrefix": GamePrefix(prefixRoot, scope),
		},
	}, nil
}

// ResetToDefaults replaces a document with the factory defaults. It's the
// recovery path for ErrConfigCorrupt.
func (s *Store) ResetToDefaults(scope string) (*Document, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.factoryLocked(scope)
	if err != nil {
		return nil, err
	}
	if err := s.writeLocked(doc); err != nil {
		return nil, err
	}
	s.docs[scope] = doc
	return doc, nil
}

// Reset drops every cached document.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Document)
}

// EffectiveSettings resolves the settings for appName. Override documents
// fall back to the global defaults for absent keys. Explicit documents are
// used exactly as stored.
func (s *Store) EffectiveSettings(appName string) (EffectiveSettings, error) {
	global, err := s.Global()
	if err != nil {
		return EffectiveSettings{}, err
	}

	res := EffectiveSettings{AppName: appName, Version: global.Version}

	if appName == GlobalScope {
		res.Values = maps.Clone(global.Values)
	} else {
		game, err := s.Game(appName)
		if err != nil {
			return EffectiveSettings{}, err
		}
		res.Version = game.Version
		res.Explicit = game.Explicit

		if game.Explicit {
			res.Values = maps.Clone(game.Values)
		} else {
			res.Values = maps.Clone(global.Values)
			maps.Copy(res.Values, game.Values)
		}
	}

	res.Settings, err = Decode(res.Values)
	if err != nil {
		return EffectiveSettings{}, fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, appName, err)
	}
	return res, nil
}

// WriteSettings validates values and replaces the full value set of scope,
// upgrading the document on the way if needed.
func (s *Store) WriteSettings(scope string, values map[string]any) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	normalized, err := normalizeValues(values)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if _, err := Validate(normalized); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getLocked(scope)
	if err != nil {
		return err
	}

	doc := &Document{
		Scope:    scope,
		Version:  CurrentVersion,
		Explicit: current.Explicit,
		Values:   normalized,
	}
	if err := s.writeLocked(doc); err != nil {
		return err
	}
	s.docs[scope] = doc

	log.Debug().Msgf("wrote %s settings", scope)
	return nil
}

// normalizeValues gives values the same types a reload from disk would.
func normalizeValues(values map[string]any) (map[string]any, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal values: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal values: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
