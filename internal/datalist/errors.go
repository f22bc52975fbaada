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

import "errors"

var (
	// ErrNotFound means no tier holds a value for the name. It is not a
	// failure.
	ErrNotFound = errors.New("datalist: name not set")

	// ErrStoreUnavailable means the persistent store could not be read or
	// written. Callers that must not act on uncertain state check for it
	// with errors.Is.
	ErrStoreUnavailable = errors.New("datalist: persistent store unavailable")

	// ErrNameTooLong is returned when a name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("datalist: name too long")

	// ErrUnpersistable is returned for values the persistent store cannot
	// hold, such as structs, pointers and funcs.
	ErrUnpersistable = errors.New("datalist: value cannot be persisted")
)
