package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okapisearch/okapi/internal/index"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	DataDir   string
	ConfigRef string
	SchemaRef string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update --data <dir> <payload-file>",
		Short: "Submit an update payload to an index directory",
		Long: `Submit a serialized update payload (add, delete, commit, optimize)
to the index in the given data directory. Pass "-" to read the payload
from stdin.

Examples:
  okapi update --data ./data add-docs.xml
  echo "<commit/>" | okapi update --data ./data -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "index data directory (required)")
	_ = cmd.MarkFlagRequired("data")
	cmd.Flags().StringVar(&opts.ConfigRef, "config", "", "opaque engine config identifier")
	cmd.Flags().StringVar(&opts.SchemaRef, "schema", "", "opaque engine schema identifier")

	return cmd
}

func runUpdate(opts *UpdateOptions, payloadPath string, cmd *cobra.Command) error {
	payload, err := readPayload(payloadPath, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "read payload", err)
	}

	eng, err := openEngine(opts.DataDir, opts.ConfigRef, opts.SchemaRef)
	if err != nil {
		return err
	}
	defer eng.Close()

	diag, err := eng.SubmitMutation(payload)
	if err != nil {
		return WrapExitError(ExitCommandError, "malformed update payload", err)
	}
	if diag != "" {
		return NewExitError(ExitFailure, fmt.Sprintf("update rejected: %s", diag))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}

func readPayload(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func openEngine(dataDir, configRef, schemaRef string) (*index.Engine, error) {
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("data directory not found: %s", dataDir))
	}
	eng, err := index.Open(dataDir, configRef, schemaRef, index.Options{})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open index", err)
	}
	return eng, nil
}
