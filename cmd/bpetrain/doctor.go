package main

import (
	"fmt"

	"github.com/example/go-bpe-trainer/internal/config"
	"github.com/example/go-bpe-trainer/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the vocabulary log, corpus inputs and training settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			format, err := config.NormalizeFormat(cfg.Corpus.Format)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "corpus format: %s\n", format)

			result := doctor.Run(doctor.Config{
				Fs:          appFs,
				VocabPath:   cfg.Vocab.Path,
				CorpusPaths: cfg.Corpus.Paths,
				Format:      format,
				TargetSize:  cfg.Train.TargetSize,
				Eta:         cfg.Train.Eta,
				Forbidden:   cfg.Train.Forbidden,
			}, out)

			if result.Failed() {
				return fmt.Errorf("doctor found %d problem(s)", len(result.Failures()))
			}
			_, _ = fmt.Fprintln(out, "all checks passed")
			return nil
		},
	}

	return cmd
}
