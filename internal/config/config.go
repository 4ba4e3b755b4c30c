// Package config loads the tool configuration for modforge. Settings are
// layered from built-in defaults, an optional modforge.yaml file, MODFORGE_
// environment variables and command-line flags, highest last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultNamingScheme = "flat"
	envPrefix           = "MODFORGE_"
)

// Options holds all tool configuration.
type Options struct {
	// RobotPaths are the search roots for buildspec discovery.
	RobotPaths []string `koanf:"robot_paths"`
	// NamingScheme selects the module naming scheme.
	NamingScheme string `koanf:"naming_scheme"`
	// ValidModuleClasses constrains the moduleclass parameter.
	ValidModuleClasses []string `koanf:"valid_module_classes"`
	// ValidStops constrains the stop parameter.
	ValidStops []string `koanf:"valid_stops"`
	// FilterDeps lists software names removed from dependency lists.
	FilterDeps []string `koanf:"filter_deps"`
	// Validate enables the validation pass globally.
	Validate bool `koanf:"validate"`
	// CheckOSDeps gates the OS-dependency probe during validation.
	CheckOSDeps bool `koanf:"check_os_deps"`
	// Hidden installs modules as hidden.
	Hidden bool `koanf:"hidden"`
	// OnlyBlocks restricts resolution to the named blocks of a source.
	OnlyBlocks []string `koanf:"only_blocks"`
	Verbose    bool     `koanf:"verbose"`

	// ConfigFileUsed records which config file was loaded, if any.
	ConfigFileUsed string `koanf:"-"`
}

// findConfigFile picks the config file to use: an explicit path wins,
// otherwise modforge.yaml or modforge.yml in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"modforge.yaml", "modforge.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load layers the tool configuration. Precedence, highest to lowest:
// flags > environment variables > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Options, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"naming_scheme":        DefaultNamingScheme,
		"valid_module_classes": DefaultModuleClasses,
		"valid_stops":          DefaultStops,
		"validate":             true,
		"check_os_deps":        false,
		"hidden":               false,
		"verbose":              false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed := findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// MODFORGE_ROBOT_PATHS -> robot_paths
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --robot is the flag spelling of robot_paths
			if key == "robot" {
				return "robot_paths", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var opts Options
	if err := k.Unmarshal("", &opts); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	opts.ConfigFileUsed = configFileUsed

	for i, root := range opts.RobotPaths {
		if abs, err := filepath.Abs(root); err == nil {
			opts.RobotPaths[i] = abs
		}
	}

	return &opts, nil
}
