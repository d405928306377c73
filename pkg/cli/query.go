package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockforce/pkg/cli/internal/output"
)

var queryCmd = &cobra.Command{
	Use:   "query <descriptor.json|->",
	Short: "Run a query descriptor against the seeded store",
	Long: `Run a query descriptor against the seeded store and print the result as
{totalSize, done, records}.

A descriptor is the parsed form of a SOQL query:

  {
    "sobject": "Contact",
    "fields": ["Id", "LastName", "Account.Name"],
    "where": [["LastName", "=", "'Doe'"], "AND", ["Age", ">", 30]],
    "order_by": [[["LastName", "DESC", "NULLS", "LAST"]]],
    "limit": ["LIMIT", 10]
  }

Use - to read the descriptor from stdin.`,
	Example: `  mockforce query contacts.json
  echo '{"sobject": "Account"}' | mockforce query -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		o, err := openOrg(cmd)
		if err != nil {
			return err
		}
		res, err := o.QueryDescriptor(data)
		if err != nil {
			return describe(err)
		}
		return output.JSON(cmd.OutOrStdout(), res)
	},
}

// readInput reads a file, or the command's stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
