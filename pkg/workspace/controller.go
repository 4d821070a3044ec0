// Package workspace owns the tokens placed on the canvas. It detects when a
// dropped token lands on another and runs the combine-in-place cycle: the two
// inputs are replaced by a loading placeholder, which becomes the result or
// splits back into the inputs.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/eventstream"
	"github.com/papercomputeco/alembic/pkg/eventstream/nop"
	"github.com/papercomputeco/alembic/pkg/inventory"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/metrics"
	"github.com/papercomputeco/alembic/pkg/recipe"
	"github.com/papercomputeco/alembic/pkg/resolver"
)

// Defaults applied to zero Config fields.
const (
	DefaultCollisionThreshold = 60.0
	DefaultRollbackOffset     = 30.0
	DefaultNarrowViewport     = 768.0
	DefaultWorkers            = 3
	DefaultQueueSize          = 64
)

// Resolver combines two concepts.
type Resolver interface {
	Resolve(ctx context.Context, a, b element.Concept) (resolver.Outcome, error)
}

// Config configures a Controller.
type Config struct {
	Resolver  Resolver
	Inventory *inventory.Inventory
	Recipes   *recipe.Cache

	// Publisher receives combination events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher
	Metrics   *metrics.Recorder

	CollisionThreshold float64
	RollbackOffset     float64
	NarrowViewport     float64
	Workers            uint
	QueueSize          uint

	// Jitter returns values in [0, 1) for spawn placement.
	Jitter func() float64

	Logger *slog.Logger
}

// DragOutcome says what a drop did.
type DragOutcome string

const (
	OutcomeMoved     DragOutcome = "moved"
	OutcomeCombining DragOutcome = "combining"
)

// DragResult is the result of DragEnd. Token is the moved token or the
// loading placeholder.
type DragResult struct {
	Outcome DragOutcome `json:"outcome"`
	Token   Token       `json:"token"`
}

// Controller is the workspace state machine. It is safe for concurrent use.
type Controller struct {
	resolver  Resolver
	inventory *inventory.Inventory
	recipes   *recipe.Cache
	publisher eventstream.Publisher
	metrics   *metrics.Recorder
	logger    *slog.Logger

	threshold      float64
	rollbackOffset float64
	narrowViewport float64
	jitter         func() float64

	mu     sync.Mutex
	tokens []Token
	closed bool

	// inflight counts queued combinations; settled is signalled on c.mu
	// when it drops to zero.
	inflight int
	settled  *sync.Cond

	pool *pool
}

// New creates a Controller and starts its combination workers.
func New(cfg Config) (*Controller, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("workspace requires a resolver")
	}
	if cfg.Inventory == nil {
		return nil, errors.New("workspace requires an inventory")
	}
	if cfg.Recipes == nil {
		return nil, errors.New("workspace requires a recipe cache")
	}

	c := &Controller{
		resolver:       cfg.Resolver,
		inventory:      cfg.Inventory,
		recipes:        cfg.Recipes,
		publisher:      cfg.Publisher,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		threshold:      orDefault(cfg.CollisionThreshold, DefaultCollisionThreshold),
		rollbackOffset: orDefault(cfg.RollbackOffset, DefaultRollbackOffset),
		narrowViewport: orDefault(cfg.NarrowViewport, DefaultNarrowViewport),
		jitter:         cfg.Jitter,
	}
	c.settled = sync.NewCond(&c.mu)
	if c.publisher == nil {
		c.publisher = nop.NewPublisher()
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	if c.jitter == nil {
		c.jitter = rand.Float64
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize == 0 {
		queueSize = DefaultQueueSize
	}

	p, err := newPool(workers, queueSize, c.process, c.logger)
	if err != nil {
		return nil, err
	}
	c.pool = p
	return c, nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// AddToken places c at the default spawn position for viewportWidth.
func (c *Controller) AddToken(concept element.Concept, viewportWidth float64) Token {
	x, y := SpawnPosition(viewportWidth, c.narrowViewport, c.jitter)
	return c.AddTokenAt(concept, x, y)
}

// AddTokenAt places c at (x, y).
func (c *Controller) AddTokenAt(concept element.Concept, x, y float64) Token {
	t := newToken(concept, x, y)

	c.mu.Lock()
	c.tokens = append(c.tokens, t)
	c.mu.Unlock()

	return t
}

// RemoveToken deletes a token, loading or not.
func (c *Controller) RemoveToken(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return ErrTokenNotFound
	}
	c.tokens = slices.Delete(c.tokens, idx, idx+1)
	c.observeLoadingLocked()
	return nil
}

// ClearWorkspace removes every token. Inventory and recipes are untouched.
func (c *Controller) ClearWorkspace() {
	c.mu.Lock()
	c.tokens = nil
	c.observeLoadingLocked()
	c.mu.Unlock()
}

// ResetAll restores the seed inventory and empties the recipe cache and the
// workspace. It does nothing unless confirmed is true.
func (c *Controller) ResetAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens = nil
	c.observeLoadingLocked()
	c.inventory.Reset(ctx)
	c.recipes.Reset(ctx)
	c.logger.Info("workspace reset")
	return nil
}

// Tokens returns the tokens in insertion order.
func (c *Controller) Tokens() []Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tokens)
}

// Token returns the token with id.
func (c *Controller) Token(id string) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return Token{}, false
	}
	return c.tokens[idx], true
}

// DragEnd handles a token dropped at (x, y). When it lands on another token
// both are replaced by a loading placeholder at the target's position and the
// combination runs in the background. Otherwise the token moves.
func (c *Controller) DragEnd(_ context.Context, id string, x, y float64) (DragResult, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return DragResult{}, ErrClosed
	}

	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return DragResult{}, ErrTokenNotFound
	}
	if c.tokens[idx].Loading {
		c.mu.Unlock()
		return DragResult{}, ErrTokenLoading
	}

	hit := findCollision(c.tokens, id, x, y, c.threshold)
	if hit < 0 {
		c.tokens[idx].X, c.tokens[idx].Y = x, y
		moved := c.tokens[idx]
		c.mu.Unlock()
		return DragResult{Outcome: OutcomeMoved, Token: moved}, nil
	}

	dragged := c.tokens[idx]
	target := c.tokens[hit]
	c.tokens = slices.DeleteFunc(c.tokens, func(t Token) bool {
		return t.ID == dragged.ID || t.ID == target.ID
	})

	loading := newLoadingToken(target.X, target.Y)
	c.tokens = append(c.tokens, loading)
	c.observeLoadingLocked()

	j := job{loadingID: loading.ID, dragged: dragged, target: target}
	if !c.pool.enqueue(j) {
		c.rollbackLocked(j)
		c.mu.Unlock()

		c.metrics.Combination(metrics.OutcomeBusy)
		c.publish(eventstream.NewRejectedEvent(dragged.Concept, target.Concept, ErrBusy.Error(), loading.ID))
		return DragResult{}, ErrBusy
	}
	// Workers settle under c.mu, so counting after enqueue cannot underflow.
	c.inflight++
	c.mu.Unlock()

	c.logger.Debug("combining tokens",
		"dragged", dragged.Concept.Name,
		"target", target.Concept.Name,
		"loading_id", loading.ID,
	)
	return DragResult{Outcome: OutcomeCombining, Token: loading}, nil
}

// Discover combines a and b without touching the workspace. A new result is
// added to the inventory before Discover returns. A result that lands after
// ResetAll is discarded and reported as false.
func (c *Controller) Discover(ctx context.Context, a, b element.Concept) (element.Concept, bool) {
	epoch := c.recipes.Epoch()

	out, err := c.resolver.Resolve(ctx, a, b)
	if err != nil {
		c.metrics.Combination(metrics.OutcomeRejected)
		c.publish(eventstream.NewRejectedEvent(a, b, err.Error(), ""))
		return element.Concept{}, false
	}

	c.mu.Lock()
	if c.recipes.Epoch() != epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding result computed before reset", "a", a.Name, "b", b.Name, "result", out.Concept.Name)
		c.metrics.Combination(metrics.OutcomeStale)
		return element.Concept{}, false
	}
	discovered := c.inventory.Add(ctx, out.Concept)
	c.mu.Unlock()

	c.metrics.Combination(metrics.OutcomeResolved)
	c.publish(eventstream.NewResolvedEvent(a, b, out.Concept, string(out.Source), discovered, ""))
	return out.Concept, true
}

// Wait blocks until every queued combination has committed or rolled back,
// including combinations queued while it waits.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inflight > 0 {
		c.settled.Wait()
	}
}

// Close stops accepting drags and drains queued combinations.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.pool.close()
	return nil
}

// process runs on a pool worker.
func (c *Controller) process(j job) {
	defer c.settle()

	ctx := context.Background()
	out, err := c.resolver.Resolve(ctx, j.dragged.Concept, j.target.Concept)
	if err != nil {
		c.fail(j, err)
		return
	}
	c.commit(ctx, j, out)
}

func (c *Controller) commit(ctx context.Context, j job, out resolver.Outcome) {
	c.mu.Lock()

	idx := c.indexLocked(j.loadingID)
	if idx < 0 {
		c.mu.Unlock()
		c.logger.Debug("discarding result for removed token", "loading_id", j.loadingID, "result", out.Concept.Name)
		c.metrics.Combination(metrics.OutcomeStale)
		return
	}

	discovered := c.inventory.Add(ctx, out.Concept)
	c.tokens[idx].Concept = out.Concept
	c.tokens[idx].Loading = false
	c.observeLoadingLocked()
	c.mu.Unlock()

	c.metrics.Combination(metrics.OutcomeResolved)
	c.publish(eventstream.NewResolvedEvent(j.dragged.Concept, j.target.Concept, out.Concept, string(out.Source), discovered, j.loadingID))
}

func (c *Controller) fail(j job, cause error) {
	c.mu.Lock()

	if c.indexLocked(j.loadingID) < 0 {
		c.mu.Unlock()
		c.logger.Debug("discarding rollback for removed token", "loading_id", j.loadingID)
		c.metrics.Combination(metrics.OutcomeStale)
		return
	}
	c.rollbackLocked(j)
	c.mu.Unlock()

	c.logger.Debug("combination rejected", "dragged", j.dragged.Concept.Name, "target", j.target.Concept.Name, "error", cause)
	c.metrics.Combination(metrics.OutcomeRejected)
	c.publish(eventstream.NewRejectedEvent(j.dragged.Concept, j.target.Concept, cause.Error(), j.loadingID))
}

// rollbackLocked swaps the loading token for the original inputs, the dragged
// token to its left and the target to its right.
func (c *Controller) rollbackLocked(j job) {
	idx := c.indexLocked(j.loadingID)
	if idx < 0 {
		return
	}
	loading := c.tokens[idx]
	c.tokens = slices.Delete(c.tokens, idx, idx+1)

	dragged, target := j.dragged, j.target
	dragged.X, dragged.Y = loading.X-c.rollbackOffset, loading.Y
	target.X, target.Y = loading.X+c.rollbackOffset, loading.Y
	c.tokens = append(c.tokens, dragged, target)
	c.observeLoadingLocked()
}

func (c *Controller) settle() {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.settled.Broadcast()
	}
	c.mu.Unlock()
}

func (c *Controller) indexLocked(id string) int {
	return slices.IndexFunc(c.tokens, func(t Token) bool { return t.ID == id })
}

func (c *Controller) observeLoadingLocked() {
	if c.metrics == nil {
		return
	}
	n := 0
	for _, t := range c.tokens {
		if t.Loading {
			n++
		}
	}
	c.metrics.LoadingTokens(n)
}

func (c *Controller) publish(event *eventstream.CombinationEvent) {
	if err := c.publisher.Publish(context.Background(), event); err != nil {
		c.logger.Warn("failed to publish combination event", "event_type", event.EventType, "error", err)
	}
}
