package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/pipeline"
)

var (
	batchFile        string
	batchConcurrency int
	batchNoNetwork   bool
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve companies listed in a file, one per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		inputs, err := readBatchFile(batchFile)
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		opts := model.DefaultResolveOptions()
		if batchNoNetwork {
			opts.EnableNetwork = false
		}

		profiles, err := processBatch(ctx, env.Pipeline, inputs, concurrency, opts)
		if err != nil {
			return err
		}

		if batchOutput != "" {
			if err := writeBatchOutput(batchOutput, profiles); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "path to input file, one company mention per line (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent resolutions (default from config)")
	batchCmd.Flags().BoolVar(&batchNoNetwork, "no-network", false, "skip web search and LLM stages")
	batchCmd.Flags().StringVar(&batchOutput, "out", "", "write profiles as JSON lines to this file")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

func readBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open batch file")
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read batch file")
	}
	return inputs, nil
}

// processBatch resolves inputs concurrently. Individual failures are logged
// and counted, never aborting the batch.
func processBatch(ctx context.Context, p *pipeline.Pipeline, inputs []string, concurrency int, opts model.ResolveOptions) ([]*model.CompanyProfile, error) {
	if len(inputs) == 0 {
		zap.L().Info("no inputs to process")
		return nil, nil
	}

	zap.L().Info("processing batch",
		zap.Int("inputs", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	profiles := make([]*model.CompanyProfile, len(inputs))
	var succeeded, failed atomic.Int64

	for i, input := range inputs {
		g.Go(func() error {
			log := zap.L().With(zap.String("input", input))

			profile, err := p.Process(gctx, input, opts)
			if err != nil {
				failed.Add(1)
				log.Error("resolution failed", zap.Error(err))
				return nil
			}

			profiles[i] = profile
			succeeded.Add(1)
			log.Info("resolution complete",
				zap.String("company", profile.CompanyName),
				zap.Float64("confidence", profile.ConfidenceScore),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	out := profiles[:0]
	for _, profile := range profiles {
		if profile != nil {
			out = append(out, profile)
		}
	}
	return out, nil
}

func writeBatchOutput(path string, profiles []*model.CompanyProfile) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, profile := range profiles {
		if err := enc.Encode(profile); err != nil {
			return eris.Wrap(err, "encode profile")
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "flush output file")
	}
	fmt.Println("wrote", len(profiles), "profiles to", path)
	return nil
}
