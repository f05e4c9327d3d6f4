package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okapisearch/okapi/internal/harness"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	DataDir   string
	ConfigRef string
	SchemaRef string
	Start     int
	Rows      int
	Sort      string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query --data <dir> <q>",
		Short: "Run a query against an index directory",
		Long: `Run a query against the index in the given data directory and print
the raw response.

The query supports "*:*" (all documents), "field:value" (exact field
match), and a bare term (exact match in any field).

Examples:
  okapi query --data ./data "*:*"
  okapi query --data ./data "title:Apple pie" --rows 5
  okapi query --data ./data "author:unknown" --sort "title asc"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "index data directory (required)")
	_ = cmd.MarkFlagRequired("data")
	cmd.Flags().StringVar(&opts.ConfigRef, "config", "", "opaque engine config identifier")
	cmd.Flags().StringVar(&opts.SchemaRef, "schema", "", "opaque engine schema identifier")
	cmd.Flags().IntVar(&opts.Start, "start", harness.DefaultStart, "zero-based result offset")
	cmd.Flags().IntVar(&opts.Rows, "rows", harness.DefaultRows, "page size")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", `result ordering ("field asc" or "field desc")`)

	return cmd
}

func runQueryCmd(opts *QueryOptions, q string, cmd *cobra.Command) error {
	eng, err := openEngine(opts.DataDir, opts.ConfigRef, opts.SchemaRef)
	if err != nil {
		return err
	}
	defer eng.Close()

	factory := harness.NewRequestFactory(
		harness.DefaultHandler, opts.Start, opts.Rows,
		harness.VersionParamName, harness.DefaultVersion,
	)
	params := []string{"q", q}
	if opts.Sort != "" {
		params = append(params, "sort", opts.Sort)
	}
	req, err := factory.Make(params...)
	if err != nil {
		return WrapExitError(ExitCommandError, "build request", err)
	}
	defer req.Close()

	body, err := eng.SubmitQuery(req)
	if err != nil {
		return WrapExitError(ExitCommandError, "execute query", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), body)
	return nil
}
