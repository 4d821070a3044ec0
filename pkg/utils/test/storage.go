package testutils

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/alembic/pkg/storage"
)

// DescribeDriverBehavior registers the behavior every storage.Driver must
// share. driver is called after the caller's BeforeEach has run.
func DescribeDriverBehavior(driver func() storage.Driver) {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Get", func() {
		It("returns NotFoundError for a missing slot", func() {
			_, err := driver().Get(ctx, "missing")
			Expect(err).To(HaveOccurred())
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("returns a value that was put", func() {
			Expect(driver().Put(ctx, storage.InventoryKey, `[{"name":"Water","emoji":"💧"}]`)).To(Succeed())

			value, err := driver().Get(ctx, storage.InventoryKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(`[{"name":"Water","emoji":"💧"}]`))
		})
	})

	Describe("Put", func() {
		It("overwrites an existing slot", func() {
			Expect(driver().Put(ctx, storage.RecipesKey, "first")).To(Succeed())
			Expect(driver().Put(ctx, storage.RecipesKey, "second")).To(Succeed())

			value, err := driver().Get(ctx, storage.RecipesKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("second"))
		})

		It("keeps slots independent", func() {
			Expect(driver().Put(ctx, storage.InventoryKey, "inventory")).To(Succeed())
			Expect(driver().Put(ctx, storage.RecipesKey, "recipes")).To(Succeed())

			inv, err := driver().Get(ctx, storage.InventoryKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(inv).To(Equal("inventory"))

			rec, err := driver().Get(ctx, storage.RecipesKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(Equal("recipes"))
		})
	})

	Describe("Delete", func() {
		It("removes a slot", func() {
			Expect(driver().Put(ctx, storage.InventoryKey, "value")).To(Succeed())
			Expect(driver().Delete(ctx, storage.InventoryKey)).To(Succeed())

			_, err := driver().Get(ctx, storage.InventoryKey)
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("does not fail on a missing slot", func() {
			Expect(driver().Delete(ctx, "never-written")).To(Succeed())
		})
	})
}
