package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/city-brain/enterprise-cli/internal/model"
)

var (
	resolveNoNetwork    bool
	resolveDisableCache bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <text>",
	Short: "Resolve a company mention into an enriched profile",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := model.DefaultResolveOptions()
		opts.DisableCache = resolveDisableCache
		if resolveNoNetwork {
			opts.EnableNetwork = false
		}

		profile, err := env.Pipeline.Process(ctx, strings.Join(args, " "), opts)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal profile")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveNoNetwork, "no-network", false, "skip web search and LLM stages")
	resolveCmd.Flags().BoolVar(&resolveDisableCache, "disable-cache", false, "ask collaborators to bypass caches")
	rootCmd.AddCommand(resolveCmd)
}
