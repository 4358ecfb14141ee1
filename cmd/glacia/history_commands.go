package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"glacia/internal/artifacts"
	"glacia/internal/config"
	"glacia/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and manage past creations",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryUseCommand(ctx))
	historyCmd.AddCommand(newHistoryDownloadCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List past creations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *history.Store) error {
				_, profile, err := ctx.requireProfile()
				if err != nil {
					return err
				}

				controller := history.NewController(store, ctx.ensureLogger(), nil)
				records, err := controller.LoadAll(cmd.Context(), profile.OwnerKey())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No creations yet")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.ID,
						record.CreatedAt().Format(time.DateTime),
						string(record.Generated.Type),
						artifacts.Title(record.Prompt),
					})
				}
				renderTable(cmd.OutOrStdout(), []string{"ID", "Created", "Type", "Title"}, rows)
				return nil
			})
		},
	}
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a creation from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *history.Store) error {
				var confirm history.Confirmer
				if !assumeYes {
					confirm = stdinConfirmer{cmd: cmd}
				}

				controller := history.NewController(store, ctx.ensureLogger(), confirm)
				if err := controller.Remove(cmd.Context(), args[0]); err != nil {
					if errors.Is(err, history.ErrRemoveDeclined) {
						fmt.Fprintln(cmd.OutOrStdout(), "Removal cancelled")
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newHistoryUseCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Repopulate a creation draft from a past record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *history.Store) error {
				record, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("no record with id %s", args[0])
				}

				controller := history.NewController(store, ctx.ensureLogger(), nil)
				draft := controller.Reuse(record)

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Prompt: %s\n", draft.Prompt)
				if outDir == "" {
					outDir = cfg.Paths.LibraryDir
				}
				if draft.SourceImage != nil {
					target := filepath.Join(outDir, "glacia-source-"+record.ID+"."+extForMime(draft.SourceImage.MimeType))
					if err := writeImagePayload(target, *draft.SourceImage); err != nil {
						return err
					}
					fmt.Fprintf(out, "Source image written to %s\n", target)
				}
				if draft.Generated.Type == history.MediaTypeImage && draft.Generated.Image != nil {
					target := filepath.Join(outDir, artifacts.DownloadName(record.ID, extForMime(draft.Generated.Image.MimeType)))
					if err := writeImagePayload(target, *draft.Generated.Image); err != nil {
						return err
					}
					fmt.Fprintf(out, "Generated image written to %s\n", target)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "dir", "d", "", "Directory to write draft files into (defaults to the library)")
	return cmd
}

func newHistoryDownloadCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a creation's image to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *history.Store) error {
				record, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("no record with id %s", args[0])
				}
				if record.Generated.Type != history.MediaTypeImage || record.Generated.Image == nil {
					return fmt.Errorf("record %s has no stored media; video bytes are not kept in history", record.ID)
				}

				if outDir == "" {
					outDir = cfg.Paths.LibraryDir
				}
				target := filepath.Join(outDir, artifacts.DownloadName(record.ID, extForMime(record.Generated.Image.MimeType)))
				if err := writeImagePayload(target, *record.Generated.Image); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "dir", "d", "", "Directory to write the file into (defaults to the library)")
	return cmd
}
