package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockforce/pkg/cli/internal/output"
	"github.com/getmockd/mockforce/pkg/sobject"
	"github.com/getmockd/mockforce/pkg/virtual"
)

var listIncludeDeleted bool

// listHidden are the system timestamps left out of table output.
var listHidden = map[string]bool{
	sobject.FieldCreatedDate:      true,
	sobject.FieldLastModifiedDate: true,
	sobject.FieldSystemModstamp:   true,
}

var listCmd = &cobra.Command{
	Use:     "list <type>",
	Aliases: []string{"ls"},
	Short:   "List the seeded records of an sObject type",
	Example: `  mockforce list Account
  mockforce list Contact --include-deleted --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOrg(cmd)
		if err != nil {
			return err
		}
		name, ok := o.Store().ResolveType(args[0])
		if !ok {
			return describe(&virtual.NotFoundError{SObject: args[0]})
		}
		records := o.List(name, listIncludeDeleted)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return output.JSON(out, records)
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No %s records\n", name)
			return nil
		}

		columns := tableColumns(records)
		w := output.Table(out)
		fmt.Fprintln(w, strings.Join(columns, "\t"))
		for _, rec := range records {
			row := make([]string, len(columns))
			for i, col := range columns {
				if v, ok := rec.Get(col); ok {
					row[i] = v.String()
				}
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return w.Flush()
	},
}

// tableColumns returns every field name in first-seen order, minus the
// system timestamps.
func tableColumns(records []*sobject.Record) []string {
	var (
		columns []string
		seen    = make(map[string]bool)
	)
	for _, rec := range records {
		for _, key := range rec.Keys() {
			if seen[key] || listHidden[key] {
				continue
			}
			seen[key] = true
			columns = append(columns, key)
		}
	}
	return columns
}

func init() {
	listCmd.Flags().BoolVar(&listIncludeDeleted, "include-deleted", false, "Include soft-deleted records")
	rootCmd.AddCommand(listCmd)
}
