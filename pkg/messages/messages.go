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

// Package messages holds the user facing messages for failed operations
// and their translations.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys are the English text.
const (
	OfflineUnsupported = "%s can't run offline. Connect to the internet or enable offline mode."
	RuntimeMissing     = "No compatibility layer is selected for %s. Pick a Wine version in the game settings."
	RuntimeNotFound    = "The selected compatibility layer was not found: %s"
	NotInstalled       = "%s is not installed."
	DiskSpace          = "Not enough disk space to finish %s."
	LoginRequired      = "The store login has expired. Log in again and retry."
	ConfigCorrupt      = "The settings for %s are corrupt. Reset them to defaults to continue."
	TerminatedBySignal = "%s was terminated by signal %s."
	SpawnFailure       = "Failed to start %s. Check the logs for details."
	Cancelled          = "%s was cancelled."
	Generic            = "Something went wrong with %s. Check the logs for details."
)

var german = map[string]string{
	OfflineUnsupported: "%s kann nicht offline gestartet werden. Stelle eine Internetverbindung her " +
		"oder aktiviere den Offline-Modus.",
	RuntimeMissing: "Für %s ist keine Kompatibilitätsschicht ausgewählt. Wähle eine Wine-Version " +
		"in den Spieleinstellungen.",
	RuntimeNotFound:    "Die ausgewählte Kompatibilitätsschicht wurde nicht gefunden: %s",
	NotInstalled:       "%s ist nicht installiert.",
	DiskSpace:          "Nicht genug Speicherplatz, um %s abzuschließen.",
	LoginRequired:      "Die Anmeldung beim Store ist abgelaufen. Melde dich erneut an und versuche es noch einmal.",
	ConfigCorrupt:      "Die Einstellungen für %s sind beschädigt. Setze sie auf die Standardwerte zurück.",
	TerminatedBySignal: "%s wurde durch das Signal %s beendet.",
	SpawnFailure:       "%s konnte nicht gestartet werden. Details stehen in den Logs.",
	Cancelled:          "%s wurde abgebrochen.",
	Generic:            "Bei %s ist ein Fehler aufgetreten. Details stehen in den Logs.",
}

var (
	supported = []language.Tag{language.English, language.German}
	matcher   = language.NewMatcher(supported)
	cat       = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{
		OfflineUnsupported, RuntimeMissing, RuntimeNotFound, NotInstalled, DiskSpace,
		LoginRequired, ConfigCorrupt, TerminatedBySignal, SpawnFailure, Cancelled, Generic,
	} {
		_ = b.SetString(language.English, key, key)
	}
	for key, msg := range german {
		_ = b.SetString(language.German, key, msg)
	}
	return b
}

// Tag resolves a settings language code like "de" or "pt-BR" to a
// supported language, English when nothing matches.
func Tag(lang string) language.Tag {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()
	for _, t := range supported {
		if b, _ := t.Base(); b == base {
			return t
		}
	}
	return language.English
}

// Printer formats messages in lang.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(Tag(lang), message.Catalog(cat))
}

func Translate(lang, key string, args ...any) string {
	return Printer(lang).Sprintf(key, args...)
}
