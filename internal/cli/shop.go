package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/pkg/adapters/loam"
	"github.com/aretw0/kiosk/pkg/adapters/memory"
	"github.com/aretw0/kiosk/pkg/adapters/redis"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/feed/middleware"
	"github.com/aretw0/kiosk/pkg/observability"
	"github.com/aretw0/kiosk/pkg/ports"
)

// Runtime bundles a configured Shop with the resources it owns.
type Runtime struct {
	Shop    *kiosk.Shop
	Metrics *observability.Metrics
	Logger  *slog.Logger

	// Degraded is set when the catalog failed to load and defaults are served.
	Degraded *domain.LoadError

	closers []func() error
}

// Close releases the feed connections.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// BuildShop wires the shop from Options. Extra publishers (such as the HTTP
// stream manager) receive every feed event alongside Redis.
func BuildShop(opts Options, logger *slog.Logger, extra ...ports.OrderPublisher) (*Runtime, error) {
	if opts.CatalogPath == "" {
		return nil, errors.New("catalog path is required")
	}
	key, err := opts.FeedKeyBytes()
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Metrics: observability.NewMetrics(),
		Logger:  logger,
	}

	pages, err := buildPages(opts.PagesDir)
	if err != nil {
		return nil, err
	}

	pubs := make([]ports.OrderPublisher, 0, len(extra)+1)
	if opts.RedisAddr != "" {
		var redisOpts []redis.Option
		if opts.RedisPrefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(opts.RedisPrefix))
		}
		pub := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, redisOpts...)
		rt.closers = append(rt.closers, pub.Close)
		pubs = append(pubs, pub)
		logger.Info("Publishing feed to Redis", "addr", opts.RedisAddr, "stream", pub.StreamKey())
	}
	pubs = append(pubs, extra...)

	shopOpts := []kiosk.Option{
		kiosk.WithLogger(logger),
		kiosk.WithRecorder(rt.Metrics),
		kiosk.WithPages(pages),
	}
	if len(pubs) > 0 {
		shopOpts = append(shopOpts, kiosk.WithPublisher(feedChain(ports.Fanout(pubs...), key)))
	}

	shop, err := kiosk.Open(opts.CatalogPath, shopOpts...)
	var loadErr *domain.LoadError
	switch {
	case errors.As(err, &loadErr):
		logger.Warn("Catalog failed to load, serving defaults", "err", loadErr)
		rt.Degraded = loadErr
	case err != nil:
		_ = rt.Close()
		return nil, fmt.Errorf("failed to open shop: %w", err)
	}
	rt.Shop = shop
	return rt, nil
}

// feedChain masks PII on every event and, with a key, seals shipping details
// on order events. Masking runs last so sealed payloads stay intact.
func feedChain(next ports.OrderPublisher, key []byte) ports.OrderPublisher {
	mws := make([]middleware.Middleware, 0, 2)
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	mws = append(mws, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
	return middleware.Chain(next, mws...)
}

func buildPages(dir string) (ports.PageSource, error) {
	if dir == "" {
		return memory.DefaultPages(), nil
	}
	pages, err := loam.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open pages: %w", err)
	}
	return pages, nil
}
