package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clickreel/clickreel/internal/store"
)

// InfoResult is the payload of the info command.
type InfoResult struct {
	Reels          int    `json:"reels"`
	Frames         int    `json:"frames"`
	EstimatedBytes int64  `json:"estimated_bytes"`
	DiskFreeBytes  uint64 `json:"disk_free_bytes"`
}

func (r InfoResult) String() string {
	return fmt.Sprintf("reels: %d\nframes: %d\nestimated size: %d bytes\ndisk free: %d bytes",
		r.Reels, r.Frames, r.EstimatedBytes, r.DiskFreeBytes)
}

// NewInfoCommand creates the info command: aggregate statistics over
// persisted state.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "info",
		Short:         "Show storage statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, cmd)
		},
	}
	return cmd
}

func runInfo(opts *RootOptions, cmd *cobra.Command) error {
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

	info, err := st.Info(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "storage info", err)
	}

	return formatter.Success(InfoResult{
		Reels:          info.Reels,
		Frames:         info.Frames,
		EstimatedBytes: info.EstimatedBytes,
		DiskFreeBytes:  info.DiskFreeBytes,
	})
}
