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

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/siteconf/internal/bootstrap"
	"github.com/cardinalhq/siteconf/internal/datalist"
)

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configDeleteCmd, configListCmd, configImportCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print the resolved value of NAME as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession("config-get", func(ctx context.Context, bc *bootstrap.Context) error {
			v, ok := bc.Service.Get(ctx, args[0])
			if !ok {
				return fmt.Errorf("%s is not set", datalist.NormalizeName(args[0]))
			}
			return writeValue(cmd.OutOrStdout(), v)
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Save VALUE under NAME",
	Long:  "Save VALUE under NAME. VALUE is stored as JSON when it parses as JSON, otherwise as a string.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession("config-set", func(ctx context.Context, bc *bootstrap.Context) error {
			return bc.Service.Save(ctx, args[0], parseValue(args[1]))
		})
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete NAME (not supported)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession("config-delete", func(ctx context.Context, bc *bootstrap.Context) error {
			return bc.Service.Delete(ctx, args[0])
		})
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured names and where they come from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession("config-list", func(ctx context.Context, bc *bootstrap.Context) error {
			entries := []listEntry{}
			for _, name := range bc.Settings.Names() {
				entries = append(entries, listEntry{Name: name, Source: "settings"})
			}
			rows, err := bc.DB.ListSiteAttributes(ctx, bc.Site.ID())
			if err != nil {
				return fmt.Errorf("failed to list site attributes: %w", err)
			}
			for _, row := range rows {
				name, namespaced := strings.CutPrefix(row.Name, datalist.NamespacePrefix)
				source := "store"
				if !namespaced {
					source = "store (bare)"
				}
				entries = append(entries, listEntry{Name: name, Source: source, UpdatedAt: row.UpdatedAt.UTC().Format(time.RFC3339)})
			}
			return writeList(cmd.OutOrStdout(), entries)
		})
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Save every value in a YAML import file in one transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession("config-import", func(ctx context.Context, bc *bootstrap.Context) error {
			n, err := bootstrap.ImportFromYAML(ctx, args[0], bc.Site)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d values\n", n)
			return err
		})
	},
}

type listEntry struct {
	Name      string
	Source    string
	UpdatedAt string
}

func writeList(out io.Writer, entries []listEntry) error {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "NAME\tSOURCE\tUPDATED"); err != nil {
		return err
	}
	for _, e := range entries {
		updated := e.UpdatedAt
		if updated == "" {
			updated = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Source, updated); err != nil {
			return err
		}
	}
	return w.Flush()
}

// parseValue decodes s as JSON, keeping numbers exact. Anything that is
// not a single JSON document is taken as a plain string.
func parseValue(s string) any {
	if !json.Valid([]byte(s)) {
		return s
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	return v
}

func writeValue(out io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		_, err = fmt.Fprintf(out, "%v\n", v)
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
