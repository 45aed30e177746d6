package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clickreel/clickreel/internal/export"
	"github.com/clickreel/clickreel/internal/reel"
	"github.com/clickreel/clickreel/internal/store"
)

// ExportResult is the payload of the export command.
type ExportResult struct {
	ReelID string `json:"reel_id"`
	Format string `json:"format"`
	Output string `json:"output"`
	Bytes  int    `json:"bytes"`
}

func (r ExportResult) String() string {
	return fmt.Sprintf("exported reel %s as %s to %s (%d bytes)", r.ReelID, r.Format, r.Output, r.Bytes)
}

// NewExportCommand creates the export command: encode one reel as gif,
// apng, or the four-member zip bundle.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		formatFlag string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export <reel-id>",
		Short: "Export a reel as gif, apng, or a zip bundle",
		Long: `Export encodes a reel's frame sequence. Formats gif and apng write the
bare animation binary; zip writes a bundle holding the GIF, the APNG, a
metadata document, and a self-contained viewer page.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], formatFlag, outPath, cmd)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "fmt", "zip", "export format (gif|apng|zip)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (defaults to <reel-id>.<fmt>)")
	return cmd
}

func runExport(opts *RootOptions, reelID, formatFlag, outPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	format := export.Format(formatFlag)
	switch format {
	case export.FormatGIF, export.FormatAPNG, export.FormatZip:
	default:
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid export format %q", formatFlag), nil)
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

	svc := export.New(st, cfg.EncodeOptions(), nil)

	formatter.VerboseLog("encoding reel %s as %s", reelID, format)
	data, err := svc.Export(cmd.Context(), reelID, format)
	if err != nil {
		if code := reel.CodeOf(err); code != "" {
			formatter.Error(string(code), err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "export", err)
	}

	if outPath == "" {
		outPath = fmt.Sprintf("%s.%s", reelID, formatFlag)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}

	return formatter.Success(ExportResult{
		ReelID: reelID,
		Format: formatFlag,
		Output: outPath,
		Bytes:  len(data),
	})
}
