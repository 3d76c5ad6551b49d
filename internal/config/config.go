// Package config loads the server configuration.
//
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/njchilds90/symsolve/growth"
)

// EnvPrefix is stripped from environment variables. A double underscore
// separates nested keys: SYMSOLVE_REFERENCE__NU_MAX sets reference.nu_max.
const EnvPrefix = "SYMSOLVE_"

type Config struct {
	Addr            string           `koanf:"addr" validate:"required"`
	LogLevel        string           `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string           `koanf:"log_format" validate:"oneof=json console"`
	ReadTimeout     time.Duration    `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration    `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration    `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64            `koanf:"max_body_bytes" validate:"gt=0"`
	MaxDegree       int              `koanf:"max_degree" validate:"gte=1,lte=256"`
	Reference       growth.Reference `koanf:"reference"`
}

func defaults() map[string]interface{} {
	ref := growth.DefaultReference()
	return map[string]interface{}{
		"addr":                ":8080",
		"log_level":           "info",
		"log_format":          "json",
		"read_timeout":        "10s",
		"write_timeout":       "30s",
		"shutdown_timeout":    "5s",
		"max_body_bytes":      int64(1 << 20),
		"max_degree":          64,
		"reference.gamma_max": ref.GammaMax,
		"reference.nu_max":    ref.NuMax,
		"reference.kd":        ref.Kd,
		"reference.phi_o":     ref.PhiO,
		"reference.phi_rb":    ref.PhiRb,
	}
}

// RegisterFlags adds the command-line flags Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("addr", ":8080", "listen address")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-format", "json", "json or console")
	fs.Int("max-degree", 64, "largest polynomial degree handed to the root formulas")
}

// Load reads defaults, the optional YAML file, SYMSOLVE_ env vars and
// any flags that were set, then validates the result.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if err := c.Reference.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
