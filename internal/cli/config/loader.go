package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of configuration environment variables. A double
// underscore separates nested keys: URLCLUSTER_TARGET__HOST sets target.host.
const EnvPrefix = "URLCLUSTER_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"urlcluster.yaml", "urlcluster.yml"}

// flagKeys maps flag names whose config key differs from the flag name.
var flagKeys = map[string]string{
	"state":       "state_path",
	"source":      "source_table",
	"destination": "destination_table",
	"database":    "target.database",
	"engine":      "target.type",
}

// argFlags are flags Load receives as arguments rather than as config keys.
var argFlags = map[string]bool{
	"config": true,
	"target": true,
}

// findConfigFile returns the config file to load: the explicit path, or the
// first urlcluster.yaml found from the working directory upward.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for range maxUpwardSearchLevels {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from defaults, file, environment and flags.
// targetOverride selects an entry of environments whose target is merged over
// the base target; when empty, the configured environment is used.
func Load(cfgFile, targetOverride string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	d := Defaults()
	if err := k.Load(confmap.Provider(map[string]any{
		"source_table":      d.SourceTable,
		"destination_table": d.DestinationTable,
		"mode":              d.Mode,
		"summary_limit":     d.SummaryLimit,
		"state_path":        d.StatePath,
		"environment":       d.Environment,
		"verbose":           false,
		"output":            d.OutputFormat,
		"metrics.job":       d.Metrics.Job,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || argFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ConfigDir, _ = os.Getwd()
	if used != "" {
		if abs, err := filepath.Abs(used); err == nil {
			cfg.ConfigDir = filepath.Dir(abs)
		}
	}

	envName := cfg.Environment
	if targetOverride != "" {
		envName = targetOverride
		if _, ok := cfg.Environments[envName]; !ok {
			return nil, "", fmt.Errorf("unknown target %q: no such entry under environments", envName)
		}
	}
	if envCfg, ok := cfg.Environments[envName]; ok {
		if envCfg.SourceTable != "" && !flagChanged(flags, "source") {
			cfg.SourceTable = envCfg.SourceTable
		}
		if envCfg.DestinationTable != "" && !flagChanged(flags, "destination") {
			cfg.DestinationTable = envCfg.DestinationTable
		}
		cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
	}

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	if cfg.Target.Type == "" {
		cfg.Target.Type = DefaultTargetType
	}
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	if cfg.StatePath != "" && !filepath.IsAbs(cfg.StatePath) && !flagChanged(flags, "state") {
		cfg.StatePath = filepath.Join(cfg.ConfigDir, cfg.StatePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns. Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in target credentials.
func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = maps.Clone(base.Options)
	merged.Params = maps.Clone(base.Params)
	if merged.Options == nil {
		merged.Options = make(map[string]string)
	}
	if merged.Params == nil {
		merged.Params = make(map[string]any)
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	maps.Copy(merged.Options, override.Options)
	maps.Copy(merged.Params, override.Params)

	return &merged
}
