// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package datalist

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest name, in characters, that may reach a
// persistent tier.
const MaxNameLength = 255

// NamespacePrefix is prepended to names written to the persistent store so
// they cannot collide with unrelated site attributes.
const NamespacePrefix = "config:"

// NormalizeName trims surrounding whitespace from name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName reports ErrNameTooLong when name has more than
// MaxNameLength characters.
func ValidateName(name string) error {
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrNameTooLong, n, MaxNameLength)
	}
	return nil
}

// NamespacedKey returns the persistent-store key for name.
func NamespacedKey(name string) string {
	return NamespacePrefix + name
}
