package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/config"
)

const defaultURL = "http://localhost:3040"

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

var (
	flagURL     string
	flagKey     string
	flagFmt     string
	flagBackend string
	flagOwner   string
	flagVerbose bool

	log = logrus.New()
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("eternal version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}
	return fmt.Sprintf("eternal version %s", config.Version)
}

type configFile struct {
	URL           string                   `yaml:"url"`
	APIKey        string                   `yaml:"api_key"`
	Backend       string                   `yaml:"backend"`
	OwnerID       string                   `yaml:"owner_id"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
	Backend string `yaml:"backend"`
	OwnerID string `yaml:"owner_id"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "eternal",
		Short:   "Eternal: family story preservation",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			if flagVerbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: ETERNAL_URL)")
	root.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: ETERNAL_API_KEY)")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	root.PersistentFlags().StringVar(&flagBackend, "backend", "", "Store backend: http|supabase|memory (env: ETERNAL_BACKEND)")
	root.PersistentFlags().StringVar(&flagOwner, "owner", "", "Owner id for the supabase backend (env: ETERNAL_OWNER_ID)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newHomeCmd())
	root.AddCommand(newPeopleCmd())
	root.AddCommand(newOwnerCmd())
	root.AddCommand(newFailuresCmd())
	return root
}

func main() {
	log.SetLevel(logrus.WarnLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills unset flags from the environment, then from
// ~/.eternal/config.yaml. Flags take precedence.
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("ETERNAL_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("ETERNAL_API_KEY")
	}
	if flagBackend == "" {
		flagBackend = os.Getenv("ETERNAL_BACKEND")
	}
	if flagOwner == "" {
		flagOwner = os.Getenv("ETERNAL_OWNER_ID")
	}

	if cfg, ok := readConfigFile(); ok {
		p := cfg.active()
		if flagURL == defaultURL && p.URL != "" {
			flagURL = p.URL
		}
		if flagKey == "" {
			flagKey = p.APIKey
		}
		if flagBackend == "" {
			flagBackend = p.Backend
		}
		if flagOwner == "" {
			flagOwner = p.OwnerID
		}
	}

	if flagBackend == "" {
		flagBackend = backendHTTP
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".eternal", "config.yaml"), nil
}

func readConfigFile() (*configFile, bool) {
	path, err := configPath()
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, false
	}
	return &cfg, true
}

// active resolves the selected profile, falling back to the flat fields.
func (c *configFile) active() configProfile {
	out := configProfile{URL: c.URL, APIKey: c.APIKey, Backend: c.Backend, OwnerID: c.OwnerID}
	if c.Profiles == nil {
		return out
	}
	name := c.ActiveProfile
	if name == "" {
		name = "default"
	}
	p, ok := c.Profiles[name]
	if !ok {
		return out
	}
	if p.URL != "" {
		out.URL = p.URL
	}
	if p.APIKey != "" {
		out.APIKey = p.APIKey
	}
	if p.Backend != "" {
		out.Backend = p.Backend
	}
	if p.OwnerID != "" {
		out.OwnerID = p.OwnerID
	}
	return out
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
