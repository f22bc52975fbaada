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

package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/siteconf/internal/datalist"
	"github.com/cardinalhq/siteconf/internal/logctx"
)

const SupportedImportVersion = 1

// ImportFromYAML stages every value in the file and commits them with a
// single Save, so a store that saves transactionally imports all or none.
// Names and values are checked before anything is staged.
func ImportFromYAML(ctx context.Context, filePath string, store datalist.Store) (int, error) {
	ll := logctx.FromContext(ctx)

	ll.Info("Starting configuration import from YAML", slog.String("file", filePath))

	doc, err := loadImportDocument(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to load import file: %w", err)
	}
	if doc.Version != SupportedImportVersion {
		return 0, fmt.Errorf("unsupported import version %d, expected %d", doc.Version, SupportedImportVersion)
	}

	names := make([]string, 0, len(doc.Values))
	values := make(map[string]any, len(doc.Values))
	for raw, v := range doc.Values {
		name := datalist.NormalizeName(raw)
		if err := datalist.ValidateName(name); err != nil {
			return 0, err
		}
		if !datalist.Persistable(v) {
			return 0, fmt.Errorf("%w: %s (%T)", datalist.ErrUnpersistable, name, v)
		}
		if _, dup := values[name]; dup {
			return 0, fmt.Errorf("duplicate name %q after trimming", name)
		}
		values[name] = v
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		store.SetAttribute(datalist.NamespacedKey(name), values[name])
	}
	if err := store.Save(ctx); err != nil {
		return 0, fmt.Errorf("%w: import: %w", datalist.ErrStoreUnavailable, err)
	}

	ll.Info("Configuration import completed", slog.Int("values", len(names)))
	return len(names), nil
}

func loadImportDocument(filePath string) (*ImportDocument, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	var doc ImportDocument
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(false)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return &doc, nil
}
