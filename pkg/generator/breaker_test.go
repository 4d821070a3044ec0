package generator

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/logger"
)

var _ = Describe("Breaker", func() {
	var (
		calls int
		fail  bool
		b     *Breaker
	)

	BeforeEach(func() {
		calls = 0
		fail = true
		next := Func(func(context.Context, element.Concept, element.Concept) (element.Concept, error) {
			calls++
			if fail {
				return element.Concept{}, errors.New("upstream down")
			}
			return element.Concept{Name: "Steam", Glyph: "💨"}, nil
		})
		cfg := DefaultBreakerConfig("test")
		cfg.Timeout = time.Hour
		b = WithBreaker(next, cfg, logger.Nop())
	})

	It("passes results through while closed", func() {
		fail = false
		c, err := b.Generate(context.Background(), water, fire)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name).To(Equal("Steam"))
		Expect(b.State()).To(Equal("closed"))
	})

	It("opens after repeated failures and stops calling through", func() {
		for range 5 {
			_, err := b.Generate(context.Background(), water, fire)
			Expect(err).To(MatchError("upstream down"))
		}
		Expect(b.State()).To(Equal("open"))

		_, err := b.Generate(context.Background(), water, fire)
		Expect(err).To(MatchError(ErrCircuitOpen))
		Expect(calls).To(Equal(5))
	})

	It("does not count cancellations as failures", func() {
		next := Func(func(context.Context, element.Concept, element.Concept) (element.Concept, error) {
			return element.Concept{}, context.Canceled
		})
		cancelling := WithBreaker(next, DefaultBreakerConfig("cancel"), nil)
		for range 10 {
			_, _ = cancelling.Generate(context.Background(), water, fire)
		}
		Expect(cancelling.State()).To(Equal("closed"))
	})
})
