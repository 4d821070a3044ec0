package mcp_test

import (
	"context"
	"encoding/json"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/alembic/api/mcp"
	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/eventstream"
	"github.com/papercomputeco/alembic/pkg/inventory"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/storage/inmemory"
)

type fakeDiscoverer struct {
	result element.Concept
	ok     bool
	calls  [][2]string
	inv    *inventory.Inventory
}

func (f *fakeDiscoverer) Discover(ctx context.Context, a, b element.Concept) (element.Concept, bool) {
	f.calls = append(f.calls, [2]string{a.Name, b.Name})
	if f.ok {
		f.inv.Add(ctx, f.result)
	}
	return f.result, f.ok
}

func decode[T any](result *gomcp.CallToolResult) T {
	var out T
	raw, err := json.Marshal(result.StructuredContent)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(raw, &out)).To(Succeed())
	return out
}

var _ = Describe("MCP Server", func() {
	var (
		ctx        context.Context
		inv        *inventory.Inventory
		discoverer *fakeDiscoverer
		server     *mcp.Server
		session    *gomcp.ClientSession
	)

	call := func(name string, args map[string]any) *gomcp.CallToolResult {
		result, err := session.CallTool(ctx, &gomcp.CallToolParams{Name: name, Arguments: args})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	BeforeEach(func() {
		ctx = context.Background()
		inv = inventory.New(ctx, inmemory.NewDriver(), nil)
		discoverer = &fakeDiscoverer{inv: inv}

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Discoverer: discoverer,
			Inventory:  inv,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		ct, st := gomcp.NewInMemoryTransports()
		ss, err := server.MCPServer().Connect(ctx, st, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = ss.Close() })

		client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
		session, err = client.Connect(ctx, ct, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = session.Close() })
	})

	Describe("NewServer", func() {
		It("returns an error when discoverer is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Inventory: inv, Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("discoverer is required")))
		})

		It("returns an error when inventory is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Discoverer: discoverer, Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("inventory is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Discoverer: discoverer, Inventory: inv})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns a non-nil HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	It("lists both tools", func() {
		tools, err := session.ListTools(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, t := range tools.Tools {
			names = append(names, t.Name)
		}
		Expect(names).To(ConsistOf("combine", "inventory"))
	})

	Describe("combine", func() {
		It("returns the discovered concept", func() {
			discoverer.ok = true
			discoverer.result = element.Concept{Name: "Steam", Glyph: "💨"}

			result := call("combine", map[string]any{"a": "Water", "b": "Fire"})
			Expect(result.IsError).To(BeFalse())

			out := decode[mcp.CombineOutput](result)
			Expect(out.Combined).To(BeTrue())
			Expect(out.Result.Name).To(Equal("Steam"))
			Expect(discoverer.calls).To(Equal([][2]string{{"Water", "Fire"}}))
			Expect(inv.Has("Steam")).To(BeTrue())
		})

		It("reports refusal with the notice text", func() {
			result := call("combine", map[string]any{"a": "Water", "b": "Fire"})
			Expect(result.IsError).To(BeFalse())

			out := decode[mcp.CombineOutput](result)
			Expect(out.Combined).To(BeFalse())
			Expect(out.Message).To(Equal(eventstream.RejectedNotice))
		})

		It("rejects undiscovered names", func() {
			result := call("combine", map[string]any{"a": "water", "b": "Fire"})
			Expect(result.IsError).To(BeTrue())
			Expect(discoverer.calls).To(BeEmpty())
		})
	})

	Describe("inventory", func() {
		It("lists everything without a query", func() {
			out := decode[mcp.InventoryOutput](call("inventory", map[string]any{}))
			Expect(out.Count).To(Equal(4))
			Expect(out.Discovered).To(Equal(4))
		})

		It("filters by substring", func() {
			out := decode[mcp.InventoryOutput](call("inventory", map[string]any{"query": "AI"}))
			Expect(out.Concepts).To(Equal([]element.Concept{{Name: "Air", Glyph: "💨"}}))
			Expect(out.Discovered).To(Equal(4))
		})
	})
})
