// Command finalize-replay inspects the finalize log and resubmits commerce
// orders for payments whose finalize never completed.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/graceseason/storefront/internal/coordinator"
	"github.com/graceseason/storefront/internal/coordinator/finalizelog"
	"github.com/graceseason/storefront/internal/coordinator/finalizelog/sqlite"
	"github.com/graceseason/storefront/internal/pkg/config"
	"github.com/graceseason/storefront/internal/pkg/telemetry"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/kafka"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/shopify"
)

type replayer interface {
	Replay(ctx context.Context, paymentID string) (*entity.PlacedOrder, error)
}

type deps struct {
	log      finalizelog.Repository
	pipeline replayer
	close    func() error
}

type opener func(ctx context.Context) (*deps, error)

func main() {
	if err := newRootCmd(openDeps).Execute(); err != nil {
		os.Exit(1)
	}
}

func openDeps(_ context.Context) (*deps, error) {
	cfg, err := config.LoadForReplay()
	if err != nil {
		return nil, err
	}
	telemetry.InitLogger(cfg.LogLevel)

	repo, err := sqlite.Open(cfg.FinalizeLogPath)
	if err != nil {
		return nil, fmt.Errorf("open finalize log: %w", err)
	}

	var publisher ports.EventPublisher = kafka.NoopPublisher{}
	closers := []func() error{repo.Close}
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		publisher = p
		closers = append(closers, p.Close)
	}

	commerce := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Timeout:     cfg.Shopify.Timeout,
	}, nil)

	return &deps{
		log:      repo,
		pipeline: coordinator.NewPipeline(repo, commerce, publisher, coordinator.WithInFlightWindow(cfg.Shopify.Timeout)),
		close: func() error {
			var first error
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil && first == nil {
					first = err
				}
			}
			return first
		},
	}, nil
}
