package config

import (
	"fmt"
	"strings"

	"github.com/xplshn/polc/pkg/cli"
	"github.com/xyproto/env/v2"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatStrictNames Feature = iota
	FeatCheckCalls
	FeatCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

const (
	BackendNasm = "nasm"
	BackendQBE  = "qbe"
)

type Config struct {
	Features   map[Feature]Info
	FeatureMap map[string]Feature

	BackendName string
	QbeTarget   string
	TargetArch  string
	WordSize    int
	Verbose     bool
}

func NewConfig() *Config {
	cfg := &Config{
		Features: map[Feature]Info{
			FeatStrictNames: {"strict-names", false, "Reject duplicate function names and duplicate parameter names."},
			FeatCheckCalls:  {"check-calls", false, "Reject calls to functions the program does not declare."},
		},
		FeatureMap:  make(map[string]Feature),
		BackendName: BackendNasm,
		TargetArch:  "amd64",
		WordSize:    8,
	}
	for ft, info := range cfg.Features {
		cfg.FeatureMap[info.Name] = ft
	}
	return cfg
}

// LoadEnv applies defaults from the environment: POLC_TARGET selects the
// target the same way -t does and POLC_VERBOSE enables progress messages.
// The environment is re-read on every call. It returns the target string
// to be passed to SetTarget.
func (c *Config) LoadEnv() string {
	env.Load()
	c.Verbose = c.Verbose || env.Bool("POLC_VERBOSE")
	return env.Str("POLC_TARGET", BackendNasm)
}

// SetTarget configures the backend from a "backend[/qbe-target]" string.
// The nasm backend only targets amd64. For qbe without an explicit target
// the host target is used.
func (c *Config) SetTarget(goos, goarch, target string) error {
	backend, qbeTarget, _ := strings.Cut(target, "/")
	switch backend {
	case "", BackendNasm:
		if qbeTarget != "" {
			return fmt.Errorf("backend '%s' takes no sub-target, got '%s'", BackendNasm, qbeTarget)
		}
		c.BackendName, c.QbeTarget, c.TargetArch = BackendNasm, "", "amd64"
		c.WordSize = 8
		return nil
	case BackendQBE:
		c.BackendName = BackendQBE
	default:
		return fmt.Errorf("unsupported backend '%s'. Supported: '%s', '%s'", backend, BackendNasm, BackendQBE)
	}

	if qbeTarget == "" {
		qbeTarget = libqbe.DefaultTarget(goos, goarch)
	}
	c.QbeTarget = qbeTarget

	switch qbeTarget {
	case "amd64_sysv", "amd64_apple":
		c.TargetArch, c.WordSize = "amd64", 8
	case "arm64", "arm64_apple":
		c.TargetArch, c.WordSize = "arm64", 8
	case "rv64":
		c.TargetArch, c.WordSize = "riscv64", 8
	default:
		return fmt.Errorf("unrecognized QBE target '%s'", qbeTarget)
	}
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

// FeatureFlags holds the -F<feature> / -Fno-<feature> switches registered on
// a FlagSet, indexed by Feature.
type FeatureFlags []cli.FlagGroupEntry

// SetupFlagGroups registers one -F switch pair per feature.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) FeatureFlags {
	entries := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		enabled, disabled := info.Enabled, false
		entries[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: &enabled, Disabled: &disabled,
		}
	}
	fs.AddFlagGroup("Feature Flags", "feature", entries)
	return entries
}

// Apply copies parsed -F switches into the config. A -Fno- switch wins.
func (ff FeatureFlags) Apply(c *Config) {
	for i, entry := range ff {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
