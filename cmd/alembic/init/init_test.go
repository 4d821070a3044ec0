package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/alembic/cmd/alembic/init"
	"github.com/papercomputeco/alembic/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("accepts zero arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "alembic-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("creates a .alembic directory in the current directory", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".alembic"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("creates a config.toml with default values", func() {
		Expect(execute()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.API.Listen).To(Equal(":8080"))
		Expect(cfg.Generator.Provider).To(Equal("gemini"))
		Expect(cfg.Workspace.CollisionThreshold).To(Equal(60.0))
		Expect(cfg.Workspace.RollbackOffset).To(Equal(30.0))
	})

	It("succeeds when .alembic directory already exists", func() {
		err := os.MkdirAll(filepath.Join(tmpDir, ".alembic"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".alembic"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("does not overwrite existing contents when already initialized", func() {
		alembicDir := filepath.Join(tmpDir, ".alembic")
		err := os.MkdirAll(alembicDir, 0o755)
		Expect(err).NotTo(HaveOccurred())

		configFile := filepath.Join(alembicDir, "config.toml")
		err = os.WriteFile(configFile, []byte("[api]\nlisten = \":9999\"\n"), 0o600)
		Expect(err).NotTo(HaveOccurred())

		Expect(execute()).To(Succeed())

		data, err := os.ReadFile(configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("[api]\nlisten = \":9999\"\n"))
	})

	Describe("--preset with provider presets", func() {
		It("creates config.toml with openai preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Version).To(Equal(config.CurrentV))
			Expect(cfg.Generator.Provider).To(Equal("openai"))
			Expect(cfg.Generator.Model).To(Equal("gpt-4o-mini"))
			Expect(cfg.Generator.BaseURL).To(Equal("https://api.openai.com/v1"))
			Expect(cfg.API.Listen).To(Equal(":8080"))
		})

		It("creates config.toml with anthropic preset", func() {
			Expect(execute("--preset", "anthropic")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Generator.Provider).To(Equal("anthropic"))
			Expect(cfg.Generator.BaseURL).To(Equal("https://api.anthropic.com"))
		})

		It("creates config.toml with ollama preset", func() {
			Expect(execute("--preset", "ollama")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Generator.Provider).To(Equal("ollama"))
			Expect(cfg.Generator.Model).To(Equal("llama3.2"))
			Expect(cfg.Generator.BaseURL).To(Equal("http://localhost:11434"))
			Expect(cfg.Generator.TimeoutSeconds).To(Equal(uint(120)))
		})

		It("rejects unknown preset names", func() {
			err := execute("--preset", "invalid-provider")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))

			_, err = os.Stat(filepath.Join(tmpDir, ".alembic"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("overwrites an existing config.toml", func() {
			Expect(execute("--preset", "openai")).To(Succeed())
			Expect(execute("--preset", "ollama")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Generator.Provider).To(Equal("ollama"))
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[generator]
provider = "openai"
model = "gpt-4o"

[workspace]
collision_threshold = 80.0
workers = 6
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Generator.Provider).To(Equal("openai"))
			Expect(cfg.Generator.Model).To(Equal("gpt-4o"))
			Expect(cfg.Workspace.CollisionThreshold).To(Equal(80.0))
			Expect(cfg.Workspace.Workers).To(Equal(uint(6)))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("parsing")))
		})

		It("rejects an unsupported config version", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "version = 7\n")
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
		})

		It("returns error for unreachable URL", func() {
			err := execute("--preset", "http://127.0.0.1:1")
			Expect(err).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".alembic", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	_, err = toml.Decode(string(data), cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return cfg
}
