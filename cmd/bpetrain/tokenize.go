package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/go-bpe-trainer/internal/report"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"github.com/spf13/cobra"
)

func newTokenizeCmd() *cobra.Command {
	var ids bool

	cmd := &cobra.Command{
		Use:   "tokenize [text...]",
		Short: "Tokenize text with the vocabulary",
		Long:  "Tokenize the arguments, or standard input when none are given, and print one row per token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			path, err := requireVocab(cfg)
			if err != nil {
				return err
			}
			state, err := vocab.Load(appFs, path)
			if err != nil {
				return err
			}

			var input []byte
			if len(args) > 0 {
				input = []byte(strings.Join(args, " "))
			} else if input, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			doc := state.Tokenizer().TokenizeBytes(input)
			out := cmd.OutOrStdout()
			if ids {
				parts := make([]string, len(doc))
				for i, t := range doc {
					parts[i] = strconv.Itoa(int(t))
				}
				_, err := fmt.Fprintln(out, strings.Join(parts, " "))
				return err
			}
			report.Tokens(out, state, doc)
			_, err = fmt.Fprintf(out, "%d bytes, %d tokens\n", len(input), len(doc))
			return err
		},
	}

	cmd.Flags().BoolVar(&ids, "ids", false, "Print only the token ids, space separated")

	return cmd
}
