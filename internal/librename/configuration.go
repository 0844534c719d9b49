package librename

import "strings"

const (
	configurationDirectorySuffixKeyConstant   = "directory_suffix"
	configurationExcludedDirectoryKeyConstant = "excluded_directory"
	configurationPackageMarkerKeyConstant     = "package_marker"
	configurationProjectConfigKeyConstant     = "project_config_file"
	configurationDocsTemplateKeyConstant      = "docs_template"
	configurationDocsOutputKeyConstant        = "docs_output"
	configurationFailureSentinelKeyConstant   = "failure_sentinel"
	configurationKeySeparatorConstant         = "."

	defaultDirectorySuffixConstant   = "-py"
	defaultExcludedDirectoryConstant = "zdevelop"
	defaultPackageMarkerConstant     = "__init__.py"
	defaultProjectConfigConstant     = "setup.cfg"
	defaultDocsTemplateConstant      = "zdocs/source/conf-template"
	defaultDocsOutputConstant        = "zdocs/source/conf.py"
	defaultFailureSentinelConstant   = "0"
)

// Configuration describes the project layout conventions the rename workflow relies on.
type Configuration struct {
	DirectorySuffix          string `mapstructure:"directory_suffix"`
	ExcludedDirectory        string `mapstructure:"excluded_directory"`
	PackageMarker            string `mapstructure:"package_marker"`
	ProjectConfigurationFile string `mapstructure:"project_config_file"`
	DocumentationTemplate    string `mapstructure:"docs_template"`
	DocumentationOutput      string `mapstructure:"docs_output"`
	FailureSentinel          string `mapstructure:"failure_sentinel"`
}

// DefaultConfiguration returns the conventions of the standard library project template.
func DefaultConfiguration() Configuration {
	return Configuration{
		DirectorySuffix:          defaultDirectorySuffixConstant,
		ExcludedDirectory:        defaultExcludedDirectoryConstant,
		PackageMarker:            defaultPackageMarkerConstant,
		ProjectConfigurationFile: defaultProjectConfigConstant,
		DocumentationTemplate:    defaultDocsTemplateConstant,
		DocumentationOutput:      defaultDocsOutputConstant,
		FailureSentinel:          defaultFailureSentinelConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults nested beneath rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationDirectorySuffixKeyConstant:   defaults.DirectorySuffix,
		prefix + configurationExcludedDirectoryKeyConstant: defaults.ExcludedDirectory,
		prefix + configurationPackageMarkerKeyConstant:     defaults.PackageMarker,
		prefix + configurationProjectConfigKeyConstant:     defaults.ProjectConfigurationFile,
		prefix + configurationDocsTemplateKeyConstant:      defaults.DocumentationTemplate,
		prefix + configurationDocsOutputKeyConstant:        defaults.DocumentationOutput,
		prefix + configurationFailureSentinelKeyConstant:   defaults.FailureSentinel,
	}
}

// Sanitize trims configured values and restores defaults for blank entries.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := Configuration{
		DirectorySuffix:          valueOrDefault(configuration.DirectorySuffix, defaults.DirectorySuffix),
		ExcludedDirectory:        valueOrDefault(configuration.ExcludedDirectory, defaults.ExcludedDirectory),
		PackageMarker:            valueOrDefault(configuration.PackageMarker, defaults.PackageMarker),
		ProjectConfigurationFile: valueOrDefault(configuration.ProjectConfigurationFile, defaults.ProjectConfigurationFile),
		DocumentationTemplate:    valueOrDefault(configuration.DocumentationTemplate, defaults.DocumentationTemplate),
		DocumentationOutput:      valueOrDefault(configuration.DocumentationOutput, defaults.DocumentationOutput),
		FailureSentinel:          valueOrDefault(configuration.FailureSentinel, defaults.FailureSentinel),
	}
	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
