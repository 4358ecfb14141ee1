package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"glacia/internal/config"
	"glacia/internal/media/compositor"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var volume float64
	var outputPath string

	cmd := &cobra.Command{
		Use:   "merge <video> <audio>",
		Short: "Mix an audio track into a silent video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			audioPath, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			for _, path := range []string{videoPath, audioPath} {
				if !fileExists(path) {
					return fmt.Errorf("input not found: %s", path)
				}
			}

			if outputPath == "" {
				base := filepath.Base(videoPath)
				stem := strings.TrimSuffix(base, filepath.Ext(base))
				outputPath = filepath.Join(cfg.Paths.LibraryDir, stem+"-merged.mp4")
			} else if outputPath, err = config.ExpandPath(outputPath); err != nil {
				return err
			}
			if !cmd.Flags().Changed("volume") {
				volume = cfg.Merge.DefaultVolume
			}

			out := cmd.OutOrStdout()
			merger := compositor.New(cfg, ctx.ensureLogger())
			result, err := merger.Merge(cmd.Context(), compositor.Request{
				VideoPath: videoPath,
				AudioPath: audioPath,
				Volume:    volume,
			}, outputPath, func(p compositor.Progress) {
				if p.Phase == compositor.PhaseRecording {
					fmt.Fprintf(out, "\rmerging: %3.0f%%", p.Percent)
				}
			})
			if err != nil {
				fmt.Fprintln(out)
				return err
			}
			fmt.Fprintf(out, "\rMerged into %s\n", result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&volume, "volume", 1.0, "Audio volume between 0 and 1")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	return cmd
}
