// Package inspect implements the scribe CLI: offline tooling over a data
// directory for inspecting and exporting the event log, managing snapshots,
// replaying state and verifying log integrity. The commands open the store
// directly, so they expect no live editor session on the same directory.
package inspect

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/scribe-editor/scribe/internal/config"
	"github.com/scribe-editor/scribe/internal/eventlog"
	pebblestore "github.com/scribe-editor/scribe/internal/storage/pebble"
	"github.com/scribe-editor/scribe/pkg/log"
)

// NewRoot constructs the root Cobra command with all tool groups attached.
func NewRoot(logger log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "scribe",
		Short: "Scribe event log tooling",
		Long:  "Scribe persists document edits as an event log. This CLI inspects logs, manages snapshots, and replays document state.",
	}
	root.PersistentFlags().String("data-dir", "", "Data directory (defaults to the OS application data directory)")

	root.AddCommand(newLogCommand(logger))
	root.AddCommand(newSnapshotCommand(logger))
	root.AddCommand(newReplayCommand(logger))
	root.AddCommand(newVerifyCommand(logger))
	return root
}

// openStore opens the event log store under the command's data directory.
func openStore(cmd *cobra.Command, logger log.Logger) (*eventlog.Store, func(), error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dataDir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		return nil, nil, fmt.Errorf("open data dir %s: %w", dataDir, err)
	}
	return eventlog.NewStore(db, logger), func() { _ = db.Close() }, nil
}
