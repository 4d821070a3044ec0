// Package resolver turns two concepts into a third, serving repeat pairs from
// the recipe cache and sending misses to the generator.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/generator"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/metrics"
	"github.com/papercomputeco/alembic/pkg/recipe"
)

// ErrNoCombination wraps every reason two concepts failed to combine.
var ErrNoCombination = errors.New("elements do not combine")

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 30 * time.Second

// Source says where a result came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourceGenerator Source = "generator"
)

// Outcome is a successful resolution.
type Outcome struct {
	Concept element.Concept
	Source  Source
}

// Config configures a Resolver.
type Config struct {
	Cache     *recipe.Cache
	Generator generator.Generator

	// Timeout bounds each generator call. Zero means DefaultTimeout.
	Timeout time.Duration

	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Resolver combines concepts. It never touches the workspace or inventory.
type Resolver struct {
	cache   *recipe.Cache
	gen     generator.Generator
	timeout time.Duration
	metrics *metrics.Recorder
	logger  *slog.Logger

	flights singleflight.Group
}

// New creates a Resolver.
func New(cfg Config) (*Resolver, error) {
	if cfg.Cache == nil {
		return nil, errors.New("resolver requires a recipe cache")
	}
	if cfg.Generator == nil {
		return nil, errors.New("resolver requires a generator")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Resolver{
		cache:   cfg.Cache,
		gen:     cfg.Generator,
		timeout: timeout,
		metrics: cfg.Metrics,
		logger:  log,
	}, nil
}

// Combine resolves a and b, reporting false when they do not combine.
func (r *Resolver) Combine(ctx context.Context, a, b element.Concept) (element.Concept, bool) {
	out, err := r.Resolve(ctx, a, b)
	if err != nil {
		r.logger.Debug("combination failed", "a", a.Name, "b", b.Name, "error", err)
		return element.Concept{}, false
	}
	return out.Concept, true
}

// Resolve is Combine with the result source and failure cause. Errors wrap
// ErrNoCombination.
func (r *Resolver) Resolve(ctx context.Context, a, b element.Concept) (Outcome, error) {
	if c, ok := r.cache.Lookup(a.Name, b.Name); ok {
		r.metrics.CacheLookup(true)
		return Outcome{Concept: c, Source: SourceCache}, nil
	}
	r.metrics.CacheLookup(false)

	pair := element.NewPair(a.Name, b.Name)
	// The flight outlives any single caller; the generator timeout bounds it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := r.flights.Do(pair.Key(), func() (any, error) {
		// A flight for this pair may have finished between Lookup and Do.
		if c, ok := r.cache.Lookup(a.Name, b.Name); ok {
			return Outcome{Concept: c, Source: SourceCache}, nil
		}
		return r.generate(flightCtx, a, b)
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s + %s: %w", ErrNoCombination, a.Name, b.Name, err)
	}
	if shared {
		r.logger.Debug("shared in-flight combination", "pair", pair.Key())
	}
	return v.(Outcome), nil
}

func (r *Resolver) generate(ctx context.Context, a, b element.Concept) (Outcome, error) {
	epoch := r.cache.Epoch()

	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	c, err := r.gen.Generate(genCtx, a, b)
	r.metrics.GeneratorCall(time.Since(start), err)
	if err != nil {
		return Outcome{}, err
	}

	c = c.Normalize()
	if err := element.Validate(c); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", generator.ErrInvalidPayload, err)
	}

	if !r.cache.RecordAt(ctx, epoch, a.Name, b.Name, c) {
		r.logger.Debug("recipe cache reset during generation", "a", a.Name, "b", b.Name)
	}
	r.logger.Info("discovered combination", "a", a.Name, "b", b.Name, "result", c.Name)
	return Outcome{Concept: c, Source: SourceGenerator}, nil
}
