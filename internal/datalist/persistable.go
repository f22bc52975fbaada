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
	"encoding/json"
	"reflect"
)

var (
	jsonNumberType     = reflect.TypeOf(json.Number(""))
	jsonRawMessageType = reflect.TypeOf(json.RawMessage(nil))
)

// Persistable reports whether v may be handed to the persistent store.
//
// Scalars, json.Number, json.RawMessage and slices, arrays and
// string-keyed maps of persistable values are accepted. Structs, pointers,
// funcs, channels and other opaque objects are not, even though the memo
// cache will hold them.
func Persistable(v any) bool {
	if v == nil {
		return true
	}
	return persistableValue(reflect.ValueOf(v), 0)
}

// maxPersistDepth bounds recursion through self-referencing containers.
const maxPersistDepth = 32

func persistableValue(rv reflect.Value, depth int) bool {
	if depth > maxPersistDepth {
		return false
	}

	switch rv.Type() {
	case jsonNumberType, jsonRawMessageType:
		return true
	}

	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true

	case reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return persistableValue(rv.Elem(), depth+1)

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return true
		}
		for i := 0; i < rv.Len(); i++ {
			if !persistableValue(rv.Index(i), depth+1) {
				return false
			}
		}
		return true

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if !persistableValue(iter.Value(), depth+1) {
				return false
			}
		}
		return true

	default:
		return false
	}
}
