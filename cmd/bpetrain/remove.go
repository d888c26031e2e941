package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove TOKEN...",
		Short: "Remove tokens no rule builds on and rewrite the log",
		Long: `Remove each TOKEN id from the vocabulary. Later ids shift down by one after
every removal, so ids are removed from the highest to the lowest. A token that
another rule uses as an operand cannot be removed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			path, err := requireVocab(cfg)
			if err != nil {
				return err
			}

			ids := make([]token.Token, 0, len(args))
			for _, a := range args {
				n, err := strconv.ParseUint(a, 10, 16)
				if err != nil {
					return fmt.Errorf("invalid token id %q", a)
				}
				ids = append(ids, token.Token(n))
			}
			slices.Sort(ids)
			ids = slices.Compact(ids)

			state, err := vocab.Open(appFs, path)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, state.Close()) }()

			for i := len(ids) - 1; i >= 0; i-- {
				text := token.Display(state.Bytes(ids[i]))
				if err := state.RemoveToken(ids[i]); err != nil {
					return err
				}
				slog.Info("token removed", "token", int(ids[i]), "text", text)
			}
			if err := state.Sync(); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d tokens; vocabulary has %d tokens\n", len(ids), state.Size())
			return err
		},
	}

	return cmd
}
