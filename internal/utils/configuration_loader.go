package utils

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeyPathSeparatorConstant   = "."
	environmentVariableSeparatorConstant    = "_"
	fileLayerReadErrorTemplateConstant      = "failed to read configuration: %w"
	decodeErrorTemplateConstant             = "failed to parse configuration: %w"
	embeddedLayerMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// ConfigurationLoader resolves the layered pyrename configuration (the common logging section and
// the tools.rename section) into a caller-supplied struct. Layers apply in increasing priority:
// programmatic defaults, the embedded default document, the configuration file found on the
// search paths or named explicitly, and finally environment variables. Environment variable
// names join the prefix and the key path with underscores, so tools.rename.directory_suffix is
// overridden by PYRENAME_TOOLS_RENAME_DIRECTORY_SUFFIX.
type ConfigurationLoader struct {
	fileBaseName        string
	fileFormat          string
	environmentPrefix   string
	searchDirectories   []string
	keyPathReplacer     *strings.Replacer
	embeddedLayer       []byte
	embeddedLayerFormat string
}

// LoadedConfiguration reports which configuration file, if any, contributed to the result.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that looks for fileBaseName.fileFormat in
// searchDirectories and reads environment overrides under environmentPrefix.
func NewConfigurationLoader(fileBaseName string, fileFormat string, environmentPrefix string, searchDirectories []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		fileBaseName:      fileBaseName,
		fileFormat:        fileFormat,
		environmentPrefix: environmentPrefix,
		searchDirectories: slices.Clone(searchDirectories),
		keyPathReplacer:   strings.NewReplacer(configurationKeyPathSeparatorConstant, environmentVariableSeparatorConstant),
	}
}

// SetEmbeddedConfiguration installs the document compiled into the binary. It sits above the
// programmatic defaults and below any configuration file. Empty data clears the layer.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(documentData []byte, documentFormat string) {
	if loader == nil {
		return
	}
	loader.embeddedLayerFormat = strings.TrimSpace(documentFormat)
	loader.embeddedLayer = nil
	if len(documentData) > 0 {
		loader.embeddedLayer = bytes.Clone(documentData)
	}
}

// LoadConfiguration decodes every layer into targetConfiguration. An explicit
// configurationFilePath replaces the search path lookup and must exist; a configuration file
// missing from the search paths is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	layeredConfiguration := viper.New()
	layeredConfiguration.SetConfigName(loader.fileBaseName)
	layeredConfiguration.SetConfigType(loader.fileFormat)

	for keyPath, defaultValue := range defaultValues {
		layeredConfiguration.SetDefault(keyPath, defaultValue)
	}

	if mergeError := loader.mergeEmbeddedLayer(layeredConfiguration); mergeError != nil {
		return LoadedConfiguration{}, mergeError
	}

	if readError := loader.mergeFileLayer(layeredConfiguration, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, readError
	}

	layeredConfiguration.SetEnvPrefix(loader.environmentPrefix)
	if loader.keyPathReplacer != nil {
		layeredConfiguration.SetEnvKeyReplacer(loader.keyPathReplacer)
	}
	layeredConfiguration.AutomaticEnv()

	if decodeError := layeredConfiguration.Unmarshal(targetConfiguration, viper.DecodeHook(configurationDecodeHook())); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(decodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: layeredConfiguration.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) mergeEmbeddedLayer(layeredConfiguration *viper.Viper) error {
	if len(loader.embeddedLayer) == 0 {
		return nil
	}

	documentFormat := loader.fileFormat
	if len(loader.embeddedLayerFormat) > 0 {
		documentFormat = loader.embeddedLayerFormat
	}

	layeredConfiguration.SetConfigType(documentFormat)
	defer layeredConfiguration.SetConfigType(loader.fileFormat)
	if mergeError := layeredConfiguration.MergeConfig(bytes.NewReader(loader.embeddedLayer)); mergeError != nil {
		return fmt.Errorf(embeddedLayerMergeErrorTemplateConstant, mergeError)
	}
	return nil
}

func (loader *ConfigurationLoader) mergeFileLayer(layeredConfiguration *viper.Viper, configurationFilePath string) error {
	if len(configurationFilePath) > 0 {
		layeredConfiguration.SetConfigFile(configurationFilePath)
	} else {
		for _, searchDirectory := range loader.searchDirectories {
			layeredConfiguration.AddConfigPath(searchDirectory)
		}
	}

	readError := layeredConfiguration.MergeInConfig()
	var notFoundError viper.ConfigFileNotFoundError
	if readError != nil && !errors.As(readError, &notFoundError) {
		return fmt.Errorf(fileLayerReadErrorTemplateConstant, readError)
	}
	return nil
}

// configurationDecodeHook trims string values before converting them into text-unmarshalling
// types such as LogLevel, so "  Debug " in a file or environment variable is accepted.
func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		trimmedStringHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

func trimmedStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(sourceType reflect.Type, _ reflect.Type, data any) (any, error) {
		if sourceType.Kind() != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(reflect.ValueOf(data).String()), nil
	}
}
