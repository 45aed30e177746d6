package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clickreel/clickreel/internal/reel"
	"github.com/clickreel/clickreel/internal/store"
)

// DeleteResult is the payload of the delete command.
type DeleteResult struct {
	ReelID string `json:"reel_id"`
}

func (r DeleteResult) String() string {
	return fmt.Sprintf("deleted reel %s", r.ReelID)
}

// NewDeleteCommand creates the delete command: removes a reel and all of
// its frames in one atomic operation.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <reel-id>",
		Short:         "Delete a reel and all of its frames",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDelete(opts *RootOptions, reelID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	if err := st.DeleteReel(cmd.Context(), reelID); err != nil {
		if reel.IsNotFound(err) {
			formatter.Error(string(reel.ErrCodeNotFound), err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "delete reel", err)
	}

	return formatter.Success(DeleteResult{ReelID: reelID})
}
