package inspect

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scribe-editor/scribe/pkg/log"
)

func newLogCommand(logger log.Logger) *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Event log operations"}
	logCmd.AddCommand(newLogInspectCommand(logger))
	logCmd.AddCommand(newLogExportCommand(logger))
	return logCmd
}

func newLogInspectCommand(logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print events in a sequence range",
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, _ := cmd.Flags().GetString("doc")
			from, _ := cmd.Flags().GetUint64("from")
			to, _ := cmd.Flags().GetUint64("to")
			expr, _ := cmd.Flags().GetString("filter")

			filter, err := newEventFilter(expr)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}
			store, closeStore, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if to == 0 {
				if to, err = store.HeadSeq(docID); err != nil {
					return err
				}
			}
			it := store.ReadRange(docID, from, to)
			for {
				ev, ok := it.Next()
				if !ok {
					break
				}
				if !filter.Match(ev) {
					continue
				}
				marks := ""
				if ev.GroupStart {
					marks += " start"
				}
				if ev.GroupEnd {
					marks += " end"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%8d  %13d  %-14s  group=%s%s\n",
					ev.Seq, ev.TimestampMs, ev.Type, short(ev.GroupID), marks)
			}
			return it.Err()
		},
	}
	cmd.Flags().String("doc", "", "Document ID")
	cmd.Flags().Uint64("from", 1, "First sequence (inclusive)")
	cmd.Flags().Uint64("to", 0, "Last sequence (inclusive, 0 = head)")
	cmd.Flags().String("filter", "", "CEL filter, e.g. 'type == \"anchor.moved\" && !sampled'")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func newLogExportCommand(logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as NDJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, _ := cmd.Flags().GetString("doc")
			from, _ := cmd.Flags().GetUint64("from")
			to, _ := cmd.Flags().GetUint64("to")
			expr, _ := cmd.Flags().GetString("filter")
			outPath, _ := cmd.Flags().GetString("out")

			filter, err := newEventFilter(expr)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}
			store, closeStore, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			w := bufio.NewWriter(out)
			defer w.Flush()

			if to == 0 {
				if to, err = store.HeadSeq(docID); err != nil {
					return err
				}
			}
			n := 0
			it := store.ReadRange(docID, from, to)
			for {
				ev, ok := it.Next()
				if !ok {
					break
				}
				if !filter.Match(ev) {
					continue
				}
				line, err := json.Marshal(ev)
				if err != nil {
					return err
				}
				if _, err := w.Write(append(line, '\n')); err != nil {
					return err
				}
				n++
			}
			if err := it.Err(); err != nil {
				return err
			}
			logger.Info("export complete", log.Str("doc", docID), log.Int("events", n))
			return nil
		},
	}
	cmd.Flags().String("doc", "", "Document ID")
	cmd.Flags().Uint64("from", 1, "First sequence (inclusive)")
	cmd.Flags().Uint64("to", 0, "Last sequence (inclusive, 0 = head)")
	cmd.Flags().String("filter", "", "CEL filter over seq, ts_ms, type, user, group, sampled, json")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
