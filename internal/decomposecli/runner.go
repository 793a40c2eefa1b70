package decomposecli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	service "github.com/okian/claimmix/internal/app"
	"github.com/okian/claimmix/internal/domain/types"
	"github.com/okian/claimmix/pkg/logger"
)

// Run loads the scenario, decomposes it and writes the result as indented JSON to out.
func Run(ctx context.Context, config *Config, stdin io.Reader, out io.Writer) error {
	log := logger.Get().Named("decomposecli")

	pair, err := scenario(config, stdin)
	if err != nil {
		return err
	}
	log.Debug(ctx, "scenario loaded",
		logger.Int("baselineBuckets", len(pair.Baseline)),
		logger.Int("comparisonBuckets", len(pair.Comparison)),
	)

	var res types.Decomposition
	if config.BaseURL != "" {
		log.Debug(ctx, "decomposing remotely", logger.String("url", config.BaseURL))
		res, err = newHTTPClient(config.BaseURL, config.Timeout).Decompose(ctx, pair, config.Detail)
	} else {
		res, err = decomposeLocal(ctx, pair, config.Detail)
	}
	if err != nil {
		return err
	}

	log.Info(ctx, "decomposition complete",
		logger.Float64("totalChange", res.TotalChange),
		logger.Float64("severityEffect", res.SeverityEffect),
		logger.Float64("mixEffect", res.MixEffect),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func scenario(config *Config, stdin io.Reader) (types.Pair, error) {
	if config.Sample {
		return SamplePair(), nil
	}
	return LoadScenario(config.Input, stdin)
}

// decomposeLocal runs the pair through an in-process service with caching disabled.
func decomposeLocal(ctx context.Context, pair types.Pair, detail bool) (types.Decomposition, error) {
	svc := service.New(
		service.WithCache(0, 0),
		service.WithWorkerCount(1),
		service.WithLogger(logger.Get()),
	)
	if err := svc.Start(ctx); err != nil {
		return types.Decomposition{}, err
	}
	defer svc.Stop()

	return svc.Decompose(ctx, pair.Baseline, pair.Comparison, detail)
}
