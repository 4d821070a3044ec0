package workspace_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/eventstream"
	"github.com/papercomputeco/alembic/pkg/eventstream/feed"
	"github.com/papercomputeco/alembic/pkg/generator"
	"github.com/papercomputeco/alembic/pkg/inventory"
	"github.com/papercomputeco/alembic/pkg/recipe"
	"github.com/papercomputeco/alembic/pkg/resolver"
	"github.com/papercomputeco/alembic/pkg/storage/inmemory"
	"github.com/papercomputeco/alembic/pkg/workspace"
)

var (
	water = element.Concept{Name: "Water", Glyph: "💧"}
	fire  = element.Concept{Name: "Fire", Glyph: "🔥"}
	earth = element.Concept{Name: "Earth", Glyph: "🌍"}
	air   = element.Concept{Name: "Air", Glyph: "💨"}
	steam = element.Concept{Name: "Steam", Glyph: "💨"}
)

var _ = Describe("Controller", func() {
	var (
		ctx     context.Context
		inv     *inventory.Inventory
		cache   *recipe.Cache
		notices *feed.Publisher
		ctrl    *workspace.Controller
		leaks   goleak.Option
		calls   atomic.Int32
	)

	stub := func(c element.Concept) generator.Generator {
		return generator.Func(func(context.Context, element.Concept, element.Concept) (element.Concept, error) {
			calls.Add(1)
			return c, nil
		})
	}

	failing := generator.Func(func(context.Context, element.Concept, element.Concept) (element.Concept, error) {
		calls.Add(1)
		return element.Concept{}, errors.New("no idea")
	})

	// gated blocks every generator call until release is closed.
	gated := func(started chan<- struct{}, release <-chan struct{}, c element.Concept) generator.Generator {
		return generator.Func(func(context.Context, element.Concept, element.Concept) (element.Concept, error) {
			started <- struct{}{}
			<-release
			return c, nil
		})
	}

	build := func(gen generator.Generator, mutate func(*workspace.Config)) {
		r, err := resolver.New(resolver.Config{Cache: cache, Generator: gen})
		Expect(err).NotTo(HaveOccurred())

		cfg := workspace.Config{
			Resolver:  r,
			Inventory: inv,
			Recipes:   cache,
			Publisher: notices,
		}
		if mutate != nil {
			mutate(&cfg)
		}
		ctrl, err = workspace.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		leaks = goleak.IgnoreCurrent()
		ctx = context.Background()
		driver := inmemory.NewDriver()
		inv = inventory.New(ctx, driver, nil)
		cache = recipe.New(ctx, driver, nil)
		notices = feed.NewPublisher(10)
		calls.Store(0)
		ctrl = nil
	})

	AfterEach(func() {
		if ctrl != nil {
			Expect(ctrl.Close()).To(Succeed())
		}
		Expect(goleak.Find(leaks)).To(Succeed())
	})

	Describe("New", func() {
		It("requires its collaborators", func() {
			_, err := workspace.New(workspace.Config{})
			Expect(err).To(MatchError(ContainSubstring("resolver")))
		})
	})

	Describe("placing tokens", func() {
		BeforeEach(func() {
			build(failing, func(cfg *workspace.Config) {
				cfg.Jitter = func() float64 { return 0.5 }
			})
		})

		It("spawns at the narrow viewport spot", func() {
			t := ctrl.AddToken(water, 375)
			Expect(t.X).To(Equal(50.0))
			Expect(t.Y).To(Equal(100.0))
			Expect(t.Loading).To(BeFalse())
			Expect(t.ID).NotTo(BeEmpty())
		})

		It("spawns with jitter on wide viewports", func() {
			t := ctrl.AddToken(water, 1280)
			Expect(t.X).To(Equal(225.0))
			Expect(t.Y).To(Equal(225.0))
		})

		It("keeps insertion order and unique ids", func() {
			a := ctrl.AddTokenAt(water, 10, 10)
			b := ctrl.AddTokenAt(water, 10, 10)
			Expect(a.ID).NotTo(Equal(b.ID))
			Expect(ctrl.Tokens()).To(Equal([]workspace.Token{a, b}))
		})

		It("removes tokens", func() {
			a := ctrl.AddTokenAt(water, 10, 10)
			Expect(ctrl.RemoveToken(a.ID)).To(Succeed())
			Expect(ctrl.Tokens()).To(BeEmpty())
			Expect(ctrl.RemoveToken(a.ID)).To(MatchError(workspace.ErrTokenNotFound))
		})

		It("clears the workspace without touching inventory or recipes", func() {
			cache.Record(ctx, "Fire", "Water", steam)
			ctrl.AddTokenAt(water, 10, 10)
			ctrl.AddTokenAt(fire, 500, 500)

			ctrl.ClearWorkspace()
			Expect(ctrl.Tokens()).To(BeEmpty())
			Expect(inv.Len()).To(Equal(4))
			Expect(cache.Len()).To(Equal(1))
		})

		It("looks tokens up by id", func() {
			a := ctrl.AddTokenAt(earth, 1, 2)
			got, ok := ctrl.Token(a.ID)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(a))

			_, ok = ctrl.Token("missing")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("DragEnd", func() {
		BeforeEach(func() {
			build(stub(steam), nil)
		})

		DescribeTable("collision threshold",
			func(distance float64, expected workspace.DragOutcome) {
				ctrl.AddTokenAt(water, 0, 0)
				dragged := ctrl.AddTokenAt(fire, 1000, 1000)

				res, err := ctrl.DragEnd(ctx, dragged.ID, distance, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Outcome).To(Equal(expected))
				ctrl.Wait()
			},
			Entry("59 combines", 59.0, workspace.OutcomeCombining),
			Entry("60 does not combine", 60.0, workspace.OutcomeMoved),
			Entry("61 does not combine", 61.0, workspace.OutcomeMoved),
		)

		It("moves a token dropped in open space", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 1000, 1000)

			res, err := ctrl.DragEnd(ctx, dragged.ID, 300, 400)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Token.X).To(Equal(300.0))
			Expect(res.Token.Y).To(Equal(400.0))

			got, _ := ctrl.Token(dragged.ID)
			Expect(got.X).To(Equal(300.0))
		})

		It("does not collide a token with itself", func() {
			dragged := ctrl.AddTokenAt(fire, 100, 100)
			res, err := ctrl.DragEnd(ctx, dragged.ID, 101, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(workspace.OutcomeMoved))
		})

		It("picks the first colliding token in insertion order", func() {
			first := ctrl.AddTokenAt(earth, 0, 0)
			ctrl.AddTokenAt(air, 10, 0)
			dragged := ctrl.AddTokenAt(fire, 1000, 1000)

			res, err := ctrl.DragEnd(ctx, dragged.ID, 9, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(workspace.OutcomeCombining))
			Expect(res.Token.X).To(Equal(first.X))
			Expect(res.Token.Y).To(Equal(first.Y))
			ctrl.Wait()
		})

		It("rejects unknown ids", func() {
			_, err := ctrl.DragEnd(ctx, "nope", 0, 0)
			Expect(err).To(MatchError(workspace.ErrTokenNotFound))
		})

		It("rejects drags after Close", func() {
			t := ctrl.AddTokenAt(water, 0, 0)
			Expect(ctrl.Close()).To(Succeed())
			_, err := ctrl.DragEnd(ctx, t.ID, 5, 5)
			Expect(err).To(MatchError(workspace.ErrClosed))
		})
	})

	Describe("combine in place", func() {
		It("turns Water and Fire into Steam", func() {
			build(stub(element.Concept{Name: "steam", Glyph: "💨"}), nil)

			target := ctrl.AddTokenAt(water, 100, 100)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			before := len(ctrl.Tokens())

			res, err := ctrl.DragEnd(ctx, dragged.ID, 110, 105)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(workspace.OutcomeCombining))
			Expect(res.Token.Loading).To(BeTrue())
			Expect(res.Token.Concept).To(Equal(element.Loading))
			Expect(res.Token.X).To(Equal(target.X))
			Expect(res.Token.Y).To(Equal(target.Y))

			ctrl.Wait()

			tokens := ctrl.Tokens()
			Expect(tokens).To(HaveLen(before - 1))
			Expect(tokens[0]).To(Equal(workspace.Token{
				ID:      res.Token.ID,
				Concept: steam,
				X:       100,
				Y:       100,
			}))

			Expect(inv.Has("Steam")).To(BeTrue())
			Expect(inv.List()[inv.Len()-1]).To(Equal(steam))
			Expect(cache.List()).To(ConsistOf(recipe.Recipe{
				Inputs: element.Pair{"Fire", "Water"},
				Result: steam,
			}))
		})

		It("does not duplicate inventory entries for known results", func() {
			build(stub(fire), nil)

			ctrl.AddTokenAt(fire, 0, 0)
			dragged := ctrl.AddTokenAt(air, 500, 500)
			_, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			ctrl.Wait()

			Expect(inv.Len()).To(Equal(4))
		})

		It("uses the recipe cache for a repeated pair", func() {
			build(stub(steam), nil)

			for range 2 {
				ctrl.AddTokenAt(water, 0, 0)
				dragged := ctrl.AddTokenAt(fire, 500, 500)
				_, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
				Expect(err).NotTo(HaveOccurred())
				ctrl.Wait()
				ctrl.ClearWorkspace()
			}

			Expect(calls.Load()).To(Equal(int32(1)))
			Expect(cache.Len()).To(Equal(1))
		})

		It("rolls back when the elements refuse to combine", func() {
			build(failing, nil)

			target := ctrl.AddTokenAt(water, 100, 100)
			dragged := ctrl.AddTokenAt(fire, 400, 400)

			_, err := ctrl.DragEnd(ctx, dragged.ID, 110, 100)
			Expect(err).NotTo(HaveOccurred())
			ctrl.Wait()

			tokens := ctrl.Tokens()
			Expect(tokens).To(HaveLen(2))
			Expect(tokens).To(ContainElement(workspace.Token{ID: dragged.ID, Concept: fire, X: 70, Y: 100}))
			Expect(tokens).To(ContainElement(workspace.Token{ID: target.ID, Concept: water, X: 130, Y: 100}))

			Expect(inv.Len()).To(Equal(4))
			Expect(cache.Len()).To(BeZero())

			recent := notices.Recent(0)
			Expect(recent).To(HaveLen(1))
			Expect(recent[0].Message).To(Equal(eventstream.RejectedNotice))
			Expect(recent[0].TokenID).NotTo(BeEmpty())
		})

		It("honors a configured rollback offset", func() {
			build(failing, func(cfg *workspace.Config) { cfg.RollbackOffset = 10 })

			ctrl.AddTokenAt(water, 100, 100)
			dragged := ctrl.AddTokenAt(fire, 400, 400)
			_, err := ctrl.DragEnd(ctx, dragged.ID, 100, 100)
			Expect(err).NotTo(HaveOccurred())
			ctrl.Wait()

			got, ok := ctrl.Token(dragged.ID)
			Expect(ok).To(BeTrue())
			Expect(got.X).To(Equal(90.0))
		})
	})

	Describe("loading tokens", func() {
		var (
			started chan struct{}
			release chan struct{}
		)

		BeforeEach(func() {
			started = make(chan struct{}, 4)
			release = make(chan struct{})
			build(gated(started, release, steam), nil)
		})

		AfterEach(func() {
			select {
			case <-release:
			default:
				close(release)
			}
		})

		It("cannot be dragged", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			res, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			_, err = ctrl.DragEnd(ctx, res.Token.ID, 300, 300)
			Expect(err).To(MatchError(workspace.ErrTokenLoading))
		})

		It("are never collision targets", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			_, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			other := ctrl.AddTokenAt(earth, 800, 800)
			res, err := ctrl.DragEnd(ctx, other.ID, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(workspace.OutcomeMoved))
		})

		It("discards the result when the loading token was removed", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			res, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Eventually(started).Should(Receive())

			Expect(ctrl.RemoveToken(res.Token.ID)).To(Succeed())
			close(release)
			ctrl.Wait()

			Expect(ctrl.Tokens()).To(BeEmpty())
			Expect(inv.Has("Steam")).To(BeFalse())
		})

		It("discards the result after the workspace is cleared", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			_, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Eventually(started).Should(Receive())

			ctrl.ClearWorkspace()
			close(release)
			ctrl.Wait()

			Expect(ctrl.Tokens()).To(BeEmpty())
			Expect(inv.Has("Steam")).To(BeFalse())
		})

		It("discards the result after a reset", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			_, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Eventually(started).Should(Receive())

			Expect(ctrl.ResetAll(ctx, true)).To(Succeed())
			close(release)
			ctrl.Wait()

			Expect(inv.List()).To(Equal(element.Seed()))
			Expect(cache.Len()).To(BeZero())
			Expect(ctrl.Tokens()).To(BeEmpty())
		})

		It("does not let a discovery outlive a reset", func() {
			done := make(chan bool)
			go func() {
				defer GinkgoRecover()
				_, ok := ctrl.Discover(ctx, water, fire)
				done <- ok
			}()
			Eventually(started).Should(Receive())

			Expect(ctrl.ResetAll(ctx, true)).To(Succeed())
			close(release)

			Eventually(done).Should(Receive(BeFalse()))
			Expect(inv.List()).To(Equal(element.Seed()))
			Expect(cache.Len()).To(BeZero())
		})

		It("waits for combinations queued while waiting", func() {
			ctrl.AddTokenAt(water, 0, 0)
			dragged := ctrl.AddTokenAt(fire, 500, 500)
			_, err := ctrl.DragEnd(ctx, dragged.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Eventually(started).Should(Receive())

			waited := make(chan struct{})
			go func() {
				ctrl.Wait()
				close(waited)
			}()

			ctrl.AddTokenAt(earth, 2000, 0)
			other := ctrl.AddTokenAt(air, 2500, 500)
			_, err = ctrl.DragEnd(ctx, other.ID, 2000, 0)
			Expect(err).NotTo(HaveOccurred())
			Consistently(waited).ShouldNot(BeClosed())

			close(release)
			Eventually(waited).Should(BeClosed())
			for _, t := range ctrl.Tokens() {
				Expect(t.Loading).To(BeFalse())
			}
		})

		It("lets several combinations run at once", func() {
			for i := range 2 {
				x := float64(i * 1000)
				ctrl.AddTokenAt(water, x, 0)
				dragged := ctrl.AddTokenAt(earth, x+500, 500)
				_, err := ctrl.DragEnd(ctx, dragged.ID, x, 0)
				Expect(err).NotTo(HaveOccurred())
			}

			loading := 0
			for _, t := range ctrl.Tokens() {
				if t.Loading {
					loading++
				}
			}
			Expect(loading).To(Equal(2))

			close(release)
			ctrl.Wait()
			for _, t := range ctrl.Tokens() {
				Expect(t.Loading).To(BeFalse())
			}
		})
	})

	Describe("a full queue", func() {
		It("rolls back immediately and reports ErrBusy", func() {
			started := make(chan struct{}, 4)
			release := make(chan struct{})
			build(gated(started, release, steam), func(cfg *workspace.Config) {
				cfg.Workers = 1
				cfg.QueueSize = 1
			})
			defer close(release)

			drag := func(x float64) (workspace.Token, workspace.Token, error) {
				target := ctrl.AddTokenAt(water, x, 0)
				dragged := ctrl.AddTokenAt(fire, x+500, 500)
				_, err := ctrl.DragEnd(ctx, dragged.ID, x, 0)
				return target, dragged, err
			}

			_, _, err := drag(0)
			Expect(err).NotTo(HaveOccurred())
			Eventually(started).Should(Receive())

			_, _, err = drag(1000)
			Expect(err).NotTo(HaveOccurred())

			target, dragged, err := drag(2000)
			Expect(err).To(MatchError(workspace.ErrBusy))

			got, ok := ctrl.Token(dragged.ID)
			Expect(ok).To(BeTrue())
			Expect(got.X).To(Equal(1970.0))
			got, ok = ctrl.Token(target.ID)
			Expect(ok).To(BeTrue())
			Expect(got.X).To(Equal(2030.0))

			Expect(notices.Recent(0)).To(HaveLen(1))
		})
	})

	Describe("Discover", func() {
		It("adds a new result to the inventory", func() {
			build(stub(steam), nil)

			c, ok := ctrl.Discover(ctx, water, fire)
			Expect(ok).To(BeTrue())
			Expect(c).To(Equal(steam))
			Expect(inv.Has("Steam")).To(BeTrue())
			Expect(ctrl.Tokens()).To(BeEmpty())
		})

		It("reports false and a notice when nothing combines", func() {
			build(failing, nil)

			_, ok := ctrl.Discover(ctx, water, fire)
			Expect(ok).To(BeFalse())
			Expect(inv.Len()).To(Equal(4))
			Expect(notices.Recent(0)).To(HaveLen(1))
		})
	})

	Describe("ResetAll", func() {
		BeforeEach(func() {
			build(stub(steam), nil)
			_, ok := ctrl.Discover(ctx, water, fire)
			Expect(ok).To(BeTrue())
			ctrl.AddTokenAt(steam, 10, 10)
		})

		It("requires confirmation", func() {
			Expect(ctrl.ResetAll(ctx, false)).To(MatchError(workspace.ErrConfirmationRequired))
			Expect(inv.Len()).To(Equal(5))
			Expect(cache.Len()).To(Equal(1))
			Expect(ctrl.Tokens()).To(HaveLen(1))
		})

		It("restores the seed state", func() {
			Expect(ctrl.ResetAll(ctx, true)).To(Succeed())
			Expect(inv.List()).To(Equal(element.Seed()))
			Expect(cache.Len()).To(BeZero())
			Expect(ctrl.Tokens()).To(BeEmpty())
		})
	})
})
