package main

import (
	"fmt"
	"log/slog"

	"github.com/example/go-bpe-trainer/internal/corpus"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newEncodeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write the corpus as a binary token shard",
		Long: `Tokenize the configured corpus with the vocabulary and write it as a token
shard: big-endian uint16 ids with 0xFFFF after every document. An output name
ending in .zst is zstd-compressed. Shards train faster than raw text because
only rules added later have to be applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			tok := vocab.Empty().Tokenizer()
			if cfg.Vocab.Path != "" {
				state, err := vocab.Load(appFs, cfg.Vocab.Path)
				if err != nil {
					return err
				}
				tok = state.Tokenizer()
			}

			src, err := openCorpus(cfg, tok)
			if err != nil {
				return err
			}

			sw, err := corpus.CreateShard(appFs, output)
			if err != nil {
				return err
			}
			docs := 0
			err = src.Documents(cmd.Context(), func(doc []token.Token) error {
				docs++
				return sw.WriteDocument(doc)
			})
			if err = multierr.Append(err, sw.Close()); err != nil {
				return err
			}

			slog.Info("shard written", "path", output, "documents", docs, "rules", tok.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output shard path (.bin or .bin.zst)")

	return cmd
}
