package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockforce/pkg/bulk"
	"github.com/getmockd/mockforce/pkg/cli/internal/output"
	"github.com/getmockd/mockforce/pkg/sobject"
)

var (
	bulkExternalID  string
	bulkJobFile     string
	bulkXML         bool
	bulkFailOnError bool
)

// BulkOutput is the JSON result of the bulk command.
type BulkOutput struct {
	Job     *bulk.Job          `json:"job"`
	Batch   *bulk.Batch        `json:"batch"`
	Results []bulk.ResultEntry `json:"results"`
}

var bulkCmd = &cobra.Command{
	Use:   "bulk <type> <operation> <records.json>",
	Short: "Run one bulk batch against the seeded store",
	Long: `Create a bulk job and one batch holding the records in records.json (a JSON
array of objects), then print the per-record results.

The operation is insert, update or upsert. Upsert needs --external-id. The job
may instead be read from a <jobInfo> XML document with --job, in which case
only the records file is given.

Failed records are reported in the results. Use --fail-on-error to exit
non-zero when any record fails.`,
	Example: `  mockforce bulk Contact insert contacts.json
  mockforce bulk Contact upsert contacts.json --external-id Email__c
  mockforce bulk --job job.xml contacts.json --xml`,
	Args: func(cmd *cobra.Command, args []string) error {
		if bulkJobFile != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			req         bulk.JobRequest
			recordsPath string
		)
		if bulkJobFile != "" {
			data, err := os.ReadFile(bulkJobFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", bulkJobFile, err)
			}
			req, err = bulk.DecodeJobRequest(data)
			if err != nil {
				return describe(err)
			}
			recordsPath = args[0]
		} else {
			req = bulk.JobRequest{Object: args[0], Operation: args[1], ExternalIDField: bulkExternalID}
			recordsPath = args[2]
		}

		data, err := readInput(cmd, recordsPath)
		if err != nil {
			return err
		}
		records, err := sobject.DecodeRecords(data)
		if err != nil {
			return fmt.Errorf("%s: %w", recordsPath, err)
		}

		o, err := openOrg(cmd)
		if err != nil {
			return err
		}
		coordinator := o.Bulk()
		job, err := coordinator.Submit(req)
		if err != nil {
			return bulkFail(cmd, err)
		}
		batch, err := coordinator.CreateBatch(job.ID, records)
		if err != nil {
			return describe(err)
		}
		results, err := coordinator.ComputeBatchResult(job.ID, batch.ID)
		if err != nil {
			return describe(err)
		}

		out := cmd.OutOrStdout()
		if bulkXML {
			jobXML, err := bulk.EncodeJobInfo(job)
			if err != nil {
				return err
			}
			batchXML, err := bulk.EncodeBatchInfo(batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s%s", jobXML, batchXML)
			if err := output.JSON(out, results); err != nil {
				return err
			}
		} else if err := output.JSON(out, BulkOutput{Job: job, Batch: batch, Results: results}); err != nil {
			return err
		}

		if bulkFailOnError {
			failed := 0
			for _, r := range results {
				if !r.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d records failed", failed, len(results))
			}
		}
		return nil
	},
}

// bulkFail reports a rejected job. In XML mode the Bulk API <error>
// document is written to stdout as well.
func bulkFail(cmd *cobra.Command, err error) error {
	if bulkXML {
		if doc, encErr := bulk.EncodeError(err); encErr == nil {
			_, _ = cmd.OutOrStdout().Write(doc)
		}
	}
	return describe(err)
}

func init() {
	bulkCmd.Flags().StringVar(&bulkExternalID, "external-id", "", "External ID field for upsert")
	bulkCmd.Flags().StringVar(&bulkJobFile, "job", "", "Read the job from a jobInfo XML document")
	bulkCmd.Flags().BoolVar(&bulkXML, "xml", false, "Print jobInfo and batchInfo as XML before the results")
	bulkCmd.Flags().BoolVar(&bulkFailOnError, "fail-on-error", false, "Exit non-zero when any record fails")
	rootCmd.AddCommand(bulkCmd)
}
