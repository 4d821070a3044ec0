package badger_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/storage"
	"github.com/papercomputeco/alembic/pkg/storage/badger"
	testutils "github.com/papercomputeco/alembic/pkg/utils/test"
)

var _ storage.Driver = (*badger.Driver)(nil)

var _ = Describe("Driver", func() {
	Context("in memory", func() {
		var driver *badger.Driver

		BeforeEach(func() {
			var err error
			driver, err = badger.NewDriver("", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		testutils.DescribeDriverBehavior(func() storage.Driver { return driver })
	})

	Context("on disk", func() {
		It("keeps slots across reopen", func() {
			ctx := context.Background()
			dir := GinkgoT().TempDir()
			log := slog.New(logger.Nop().Handler())

			first, err := badger.NewDriver(dir, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Put(ctx, storage.InventoryKey, "persisted")).To(Succeed())
			Expect(first.Close()).To(Succeed())

			second, err := badger.NewDriver(dir, log)
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()

			value, err := second.Get(ctx, storage.InventoryKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("persisted"))
		})
	})
})
