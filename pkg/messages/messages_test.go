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

package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, language.English, Tag(""))
	assert.Equal(t, language.English, Tag("en"))
	assert.Equal(t, language.German, Tag("de"))
	assert.Equal(t, language.German, Tag("de-AT"))
	assert.Equal(t, language.English, Tag("ja"))
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hades is not installed.", Translate("en", NotInstalled, "Hades"))
	assert.Equal(t, "Hades ist nicht installiert.", Translate("de", NotInstalled, "Hades"))
	assert.Equal(t, "Hades was terminated by signal killed.", Translate("fr", TerminatedBySignal, "Hades", "killed"))
}

func TestGermanCoversEveryMessage(t *testing.T) {
	t.Parallel()

	for _, key := range cat.Languages() {
		assert.Contains(t, supported, key)
	}
	assert.Len(t, german, 11)
}
