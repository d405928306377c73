// mockforce CLI - run queries and bulk batches against an in-memory Salesforce org
package main

import "github.com/getmockd/mockforce/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
