package common

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed config.default.yaml
var defaultConfig []byte

// ConfigFormat selects a koanf parser for a config source
type ConfigFormat string

const (
	YAMLConfigFormat ConfigFormat = "yaml"
	JSONConfigFormat ConfigFormat = "json"
)

// ConfigManager layers configuration sources: the embedded defaults, an
// optional file named by CONFIG_PATH, then a raw CONFIG_JSON override.
// Later sources win key-by-key.
type ConfigManager[T any] struct {
	kf *koanf.Koanf
}

// NewConfigManager creates a new configuration manager of the provided type
func NewConfigManager[T any]() (*ConfigManager[T], error) {
	cm := &ConfigManager[T]{
		kf: koanf.New("."),
	}

	if err := cm.LoadConfig(YAMLConfigFormat, rawbytes.Provider(defaultConfig)); err != nil {
		return nil, err
	}

	if configPath, ok := os.LookupEnv("CONFIG_PATH"); ok && configPath != "" {
		format := YAMLConfigFormat
		if strings.EqualFold(filepath.Ext(configPath), ".json") {
			format = JSONConfigFormat
		}
		if err := cm.LoadConfig(format, file.Provider(configPath)); err != nil {
			return nil, err
		}
	}

	if configJSON, ok := os.LookupEnv("CONFIG_JSON"); ok && configJSON != "" {
		if err := cm.LoadConfig(JSONConfigFormat, rawbytes.Provider([]byte(configJSON))); err != nil {
			return nil, err
		}
	}

	return cm, nil
}

// LoadConfig merges a config source into the manager
func (cm *ConfigManager[T]) LoadConfig(format ConfigFormat, provider koanf.Provider) error {
	var parser koanf.Parser
	switch format {
	case JSONConfigFormat:
		parser = kjson.Parser()
	case YAMLConfigFormat:
		parser = kyaml.Parser()
	default:
		return fmt.Errorf("unsupported config format: %s", format)
	}

	if err := cm.kf.Load(provider, parser); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// GetConfig unmarshals the merged configuration into T
func (cm *ConfigManager[T]) GetConfig() T {
	var config T

	cm.kf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			WeaklyTypedInput: true,
		},
	})

	return config
}

// Print returns the merged configuration as a flat key map, for debugging
func (cm *ConfigManager[T]) Print() map[string]interface{} {
	return cm.kf.All()
}

// Raw returns the merged configuration as a nested map, preserving the
// source key names
func (cm *ConfigManager[T]) Raw() map[string]interface{} {
	return cm.kf.Raw()
}
