package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-bpe-trainer/internal/config"
	"github.com/example/go-bpe-trainer/internal/corpus"
	"github.com/example/go-bpe-trainer/internal/merge"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
	// appFs is the filesystem every command works on; tests swap in a
	// memory filesystem.
	appFs afero.Fs = afero.NewOsFs()
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "bpetrain",
		Short:         "Train byte-pair-encoding vocabularies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newTokenizeCmd())
	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.LogLevel == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

func requireVocab(cfg config.Config) (string, error) {
	if cfg.Vocab.Path == "" {
		return "", errors.New("--vocab is required")
	}
	return cfg.Vocab.Path, nil
}

// trainConfig converts the configured training settings.
func trainConfig(cfg config.Config) (train.Config, error) {
	eta, err := merge.ParseEta(cfg.Train.Eta)
	if err != nil {
		return train.Config{}, err
	}
	forbidden, err := merge.ParseForbidden(cfg.Train.Forbidden)
	if err != nil {
		return train.Config{}, err
	}
	return train.Config{
		TargetSize: cfg.Train.TargetSize,
		Policy: merge.Policy{
			Eta:            eta,
			MaxTokenLength: cfg.Train.MaxTokenLength,
			Forbidden:      forbidden,
		},
		Workers: cfg.Train.Workers,
	}, nil
}

// openCorpus opens the configured corpus inputs, tokenized with tok.
func openCorpus(cfg config.Config, tok token.Tokenizer) (train.Source, error) {
	format, err := config.NormalizeFormat(cfg.Corpus.Format)
	if err != nil {
		return nil, err
	}
	return corpus.Open(appFs, corpus.OpenSpec{
		Paths:      cfg.Corpus.Paths,
		Format:     format,
		TextColumn: cfg.Corpus.TextColumn,
		Tokenizer:  tok,
	})
}
