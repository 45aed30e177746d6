package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickreel/clickreel/internal/reel"
	"github.com/clickreel/clickreel/internal/store"
)

// InventoryList is the payload of the list command.
type InventoryList struct {
	Reels []InventoryItem `json:"reels"`
}

// InventoryItem is one reel summary.
type InventoryItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	StartedAt  string `json:"started_at"`
	FrameCount int    `json:"frame_count"`
	Status     string `json:"status"`
}

func (l InventoryList) String() string {
	if len(l.Reels) == 0 {
		return "no reels recorded"
	}
	var b strings.Builder
	for _, r := range l.Reels {
		fmt.Fprintf(&b, "%s  %-24q %4d frames  %-9s %s\n", r.ID, r.Title, r.FrameCount, r.Status, r.StartedAt)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewListCommand creates the list command: a summary inventory of all
// reels, loaded without image payloads.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recorded reels",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
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

	entries, err := st.LoadInventory(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "load inventory", err)
	}

	return formatter.Success(toInventoryList(entries))
}

func toInventoryList(entries []reel.InventoryEntry) InventoryList {
	list := InventoryList{Reels: make([]InventoryItem, 0, len(entries))}
	for _, e := range entries {
		list.Reels = append(list.Reels, InventoryItem{
			ID:         e.ID,
			Title:      e.Title,
			StartedAt:  e.StartedAt.Format(time.RFC3339),
			FrameCount: e.FrameCount,
			Status:     string(e.Status),
		})
	}
	return list
}
