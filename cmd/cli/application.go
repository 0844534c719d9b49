package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/pyrename/internal/filesystem"
	"github.com/temirov/pyrename/internal/librename"
	"github.com/temirov/pyrename/internal/utils"
	pathutils "github.com/temirov/pyrename/internal/utils/path"
)

const (
	applicationNameConstant                 = "pyrename"
	applicationUseConstant                  = applicationNameConstant + " <new-library-name>"
	applicationShortDescriptionConstant     = "Rename a Python library project"
	applicationLongDescriptionConstant      = "pyrename copies a Python library project to <new-library-name>-py, rewrites setup.cfg and the Sphinx configuration, renames its packages, and removes the original. On success the new project root is printed; on failure the failure sentinel is printed instead."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	projectFlagNameConstant                 = "project"
	projectFlagUsageConstant                = "Library project root to rename (defaults to the working directory)."
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagUsageConstant                 = "Print the rename plan without modifying anything."
	choiceUsageTemplateConstant             = "%s (%s)"
	choiceSeparatorConstant                 = "|"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	toolsConfigurationKeyConstant           = "tools"
	renameConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".rename"
	environmentPrefixConstant               = "PYRENAME"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	projectResolutionErrorTemplateConstant  = "unable to resolve project path %q: %w"
	planOutputErrorTemplateConstant         = "unable to print rename plan: %w"
	resultOutputErrorTemplateConstant       = "unable to print new project root: %w"
	rootCommandDebugMessageConstant         = "pyrename invoked"
	logFieldArgumentsConstant               = "arguments"
	logFieldProjectPathConstant             = "project_path"
	logFieldDryRunConstant                  = "dry_run"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  utils.LogLevel  `mapstructure:"log_level"`
	LogFormat utils.LogFormat `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds the rename conventions.
type ApplicationToolsConfiguration struct {
	Rename librename.Configuration `mapstructure:"rename"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	projectPathResolver   *pathutils.ProjectPathResolver
	fileSystem            afero.Fs
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	projectFlagValue      string
	dryRunFlagValue       bool
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		projectPathResolver: pathutils.NewProjectPathResolver(),
		fileSystem:          filesystem.NewOSFileSystem(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", choiceUsage(logLevelFlagUsageConstant, utils.LogLevelChoices()))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", choiceUsage(logFormatFlagUsageConstant, utils.LogFormatChoices()))
	cobraCommand.Flags().StringVar(&application.projectFlagValue, projectFlagNameConstant, "", projectFlagUsageConstant)
	cobraCommand.Flags().BoolVar(&application.dryRunFlagValue, dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command, prints the failure sentinel when it fails, and flushes the
// logger.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if executionError != nil {
		application.signalFailure()
	}
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range librename.DefaultConfigurationValues(renameConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.configuration.Tools.Rename = application.configuration.Tools.Rename.Sanitize()

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		if levelError := application.configuration.Common.LogLevel.UnmarshalText([]byte(application.logLevelFlagValue)); levelError != nil {
			return fmt.Errorf(loggerCreationErrorTemplateConstant, levelError)
		}
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		if formatError := application.configuration.Common.LogFormat.UnmarshalText([]byte(application.logFormatFlagValue)); formatError != nil {
			return fmt.Errorf(loggerCreationErrorTemplateConstant, formatError)
		}
	}

	loggerFactory := utils.NewLoggerFactoryWithDestination(command.ErrOrStderr())
	logger, loggerCreationError := loggerFactory.CreateLogger(application.configuration.Common.LogLevel, application.configuration.Common.LogFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(application.configuration.Common.LogLevel)),
		zap.String(configurationLogFormatFieldConstant, string(application.configuration.Common.LogFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
		zap.String(logFieldProjectPathConstant, application.projectFlagValue),
		zap.Bool(logFieldDryRunConstant, application.dryRunFlagValue),
	)

	var targetName string
	if len(arguments) > 0 {
		targetName = arguments[0]
	}

	projectPath, resolveError := application.projectPathResolver.Resolve(application.projectFlagValue)
	if resolveError != nil {
		return fmt.Errorf(projectResolutionErrorTemplateConstant, application.projectFlagValue, resolveError)
	}

	service := librename.NewService(librename.Dependencies{
		FileSystem: application.fileSystem,
		Logger:     application.logger,
		Errors:     command.ErrOrStderr(),
	})
	options := librename.Options{
		ProjectPath:   projectPath,
		TargetName:    targetName,
		Configuration: application.configuration.Tools.Rename,
	}

	if application.dryRunFlagValue {
		plan, planError := service.Plan(options)
		if planError != nil {
			return planError
		}
		if writeError := librename.WritePlan(command.OutOrStdout(), plan); writeError != nil {
			return fmt.Errorf(planOutputErrorTemplateConstant, writeError)
		}
		return nil
	}

	result, executeError := service.Execute(command.Context(), options)
	if executeError != nil {
		return executeError
	}

	if _, writeError := io.WriteString(command.OutOrStdout(), result.TargetPath); writeError != nil {
		return fmt.Errorf(resultOutputErrorTemplateConstant, writeError)
	}
	return nil
}

// signalFailure writes the configured failure sentinel to standard output so calling scripts
// can branch without parsing the error text.
func (application *Application) signalFailure() {
	failureSentinel := application.configuration.Tools.Rename.Sanitize().FailureSentinel
	_, _ = io.WriteString(application.rootCommand.OutOrStdout(), failureSentinel)
}

func choiceUsage(description string, choices []string) string {
	return fmt.Sprintf(choiceUsageTemplateConstant, description, strings.Join(choices, choiceSeparatorConstant))
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
