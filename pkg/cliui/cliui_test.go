package cliui_test

import (
	"bytes"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/alembic/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("ends with a success mark and returns nil", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "Opening storage", func() error { return nil })).To(Succeed())

		out := buf.String()
		Expect(out).To(HaveSuffix("\n"))
		last := out[strings.LastIndex(out, "\r"):]
		Expect(last).To(ContainSubstring(cliui.SuccessMark))
		Expect(last).To(ContainSubstring("Opening storage"))
	})

	It("returns the error and ends with a failure mark", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "Combining", func() error {
			time.Sleep(100 * time.Millisecond)
			return errors.New("refused")
		})
		Expect(err).To(MatchError("refused"))

		out := buf.String()
		last := out[strings.LastIndex(out, "\r"):]
		Expect(last).To(ContainSubstring(cliui.FailMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below one second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds from one second", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Discovery", func() {
	It("renders glyph and name", func() {
		Expect(cliui.Discovery("💨", "Steam", false)).To(Equal("💨 Steam"))
	})

	It("flags new discoveries", func() {
		Expect(cliui.Discovery("💨", "Steam", true)).To(ContainSubstring("(new!)"))
	})
})
