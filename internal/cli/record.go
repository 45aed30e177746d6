package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickreel/clickreel/internal/capture"
	"github.com/clickreel/clickreel/internal/recorder"
	"github.com/clickreel/clickreel/internal/store"
)

// RecordResult is the payload reported after a record run.
type RecordResult struct {
	ReelID string `json:"reel_id"`
	Title  string `json:"title"`
	Frames int    `json:"frames"`
}

func (r RecordResult) String() string {
	return fmt.Sprintf("recorded reel %s (%q, %d frames)", r.ReelID, r.Title, r.Frames)
}

// NewRecordCommand creates the record command: it replays a directory of
// images through the engine as one reel, spacing capture timestamps by
// the configured interval so exported animations play at that rate.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "record <images-dir>",
		Short: "Record a directory of images as a new reel",
		Long: `Record treats a directory of image files (lexical order) as the surface
being recorded: each file becomes one frame of a new reel. Capture
timestamps are spaced by record.interval_ms, so the exported animation
replays at that rate. Redaction regions from the config are applied
before any frame is persisted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(rootOpts, args[0], title, cmd)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "reel title (defaults to the directory name)")
	return cmd
}

func runRecord(opts *RootOptions, dir, title string, cmd *cobra.Command) error {
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
	if title == "" {
		title = dir
	}

	source, err := capture.NewDirectorySource(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "open surface directory", err)
	}
	defer source.Close()

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	// Replayed captures complete in microseconds; a stepped clock spaces
	// the recorded timestamps at the configured playback interval instead.
	interval := cfg.RecordInterval()
	base := time.Now()
	tick := 0
	clock := func() time.Time {
		t := base.Add(time.Duration(tick) * interval)
		tick++
		return t
	}

	rec := recorder.New(st, source,
		recorder.WithObfuscator(cfg.Obfuscator()),
		recorder.WithClock(clock),
	)

	ctx := cmd.Context()
	if err := rec.Start(ctx, title); err != nil {
		return WrapExitError(ExitFailure, "start recording", err)
	}

	total := source.Remaining()
	for i := 0; i < total; i++ {
		if err := rec.AddFrame(ctx, nil); err != nil {
			// Surface the failure but still finalize what committed.
			formatter.VerboseLog("frame %d failed: %v", i, err)
			if _, stopErr := rec.Stop(ctx); stopErr != nil {
				formatter.VerboseLog("stop after failure: %v", stopErr)
			}
			return WrapExitError(ExitFailure, fmt.Sprintf("capture frame %d", i), err)
		}
		formatter.VerboseLog("captured frame %d/%d", i+1, total)
	}

	finalized, err := rec.Stop(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "stop recording", err)
	}

	return formatter.Success(RecordResult{
		ReelID: finalized.ID,
		Title:  finalized.Title,
		Frames: finalized.FrameCount,
	})
}
