package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/alembic/cmd/alembic/config"
	"github.com/papercomputeco/alembic/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})

	It("completes config keys for the first argument only", func() {
		cmd := configcmder.NewConfigCmd()
		get, _, err := cmd.Find([]string{"get"})
		Expect(err).NotTo(HaveOccurred())

		completions, directive := get.ValidArgsFunction(get, []string{}, "")
		Expect(completions).To(Equal(config.ValidConfigKeys()))
		Expect(directive).To(Equal(cobra.ShellCompDirectiveNoFileComp))

		completions, _ = get.ValidArgsFunction(get, []string{"api.listen"}, "")
		Expect(completions).To(BeNil())
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "alembic-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// A local .alembic dir wins over ~/.alembic.
		err = os.MkdirAll(filepath.Join(tmpDir, ".alembic"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "generator.provider", "anthropic")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".alembic", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.String()).To(ContainSubstring("generator.provider"))
			Expect(out.String()).To(ContainSubstring("anthropic"))
		})

		It("rejects unknown keys", func() {
			err := run("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "generator.provider")).To(HaveOccurred())
		})

		It("rejects zero arguments", func() {
			Expect(run("set")).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "workspace.workers", "not-a-number")).To(HaveOccurred())
		})

		It("rejects invalid float values", func() {
			Expect(run("set", "workspace.collision_threshold", "near")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "workspace.collision_threshold", "80")).To(Succeed())

			out.Reset()
			Expect(run("get", "workspace.collision_threshold")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("80"))
			Expect(out.String()).To(ContainSubstring("Config file:"))
		})

		It("reports the default when no config file exists", func() {
			Expect(run("get", "api.listen")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No config file found"))
			Expect(out.String()).To(ContainSubstring(":8080"))
		})

		It("marks unset keys", func() {
			Expect(run("get", "generator.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key when no config exists", func() {
			Expect(run("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})

		It("shows stored values", func() {
			Expect(run("set", "events.topic", "discoveries")).To(Succeed())

			out.Reset()
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("discoveries"))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
