// Package configloader layers defaults, a yaml file, a .env file and process
// environment variables into a typed configuration.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

// Options describes where a configuration is read from.
type Options struct {
	// EnvPrefix selects process variables, e.g. BARCODE_ maps BARCODE_DATABASE_HOST to database.host.
	EnvPrefix string
	// File is the yaml file. Defaults to config.yaml; a missing file is not an error.
	File string
	// EnvFile is the dotenv file. Defaults to .env; a missing file is not an error.
	EnvFile string
	// Defaults are flat dotted keys applied before any other layer.
	Defaults map[string]any
	// Aliases map unprefixed variable names to keys. They are applied last.
	Aliases map[string]string
}

// Load reads the configuration in order of increasing priority: defaults, yaml file,
// .env file, prefixed environment variables, aliased environment variables.
func Load[T Validator](opts Options) (T, error) {
	var cfg T
	k := koanf.New(".")

	configFile := opts.File
	if configFile == "" {
		configFile = "config.yaml"
	}
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	// 1. Built-in defaults
	if len(opts.Defaults) > 0 {
		if err := k.Load(confmap.Provider(opts.Defaults, "."), nil); err != nil {
			return cfg, fmt.Errorf("error loading config defaults: %w", err)
		}
	}

	// 2. Load configuration from yaml file
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
		}
	}

	// 3. Load environment variables from .env file
	envTransformer := keyTransformer(opts.EnvPrefix)
	if envFileMap, err := godotenv.Read(envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), strings.ToUpper(opts.EnvPrefix)) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 4. Load environment variables from the system
	if err := k.Load(env.Provider(opts.EnvPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	// 5. Legacy variable names, the highest priority
	if len(opts.Aliases) > 0 {
		aliased := make(map[string]any)
		for name, key := range opts.Aliases {
			if value, ok := os.LookupEnv(name); ok && value != "" {
				aliased[key] = value
			}
		}
		if err := k.Load(confmap.Provider(aliased, "."), nil); err != nil {
			log.Printf("WARN: error loading aliased env vars: %v", err)
		}
	}

	// 6. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 7. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// keyTransformer maps PREFIX_SECTION_KEY to section.key.
func keyTransformer(prefix string) func(string) string {
	prefix = strings.ToLower(prefix)
	return func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, prefix)
		return strings.ReplaceAll(key, "_", ".")
	}
}
