package librename

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pyrename/internal/filesystem"
)

const (
	packageCollisionDiagnosticTemplate = "package '%s' already exists, your current package names may not conform to naming conventions. All package names should contain the root name of the library\n"
	currentDirectoryConstant           = "."
	parentDirectoryConstant            = ".."
	stageStartedMessageConstant        = "Rename stage started"
	stageFailedMessageConstant         = "Rename stage failed"
	renameCompletedMessageConstant     = "Library renamed"
	packageRenamedMessageConstant      = "Package renamed"
	rollbackFailedMessageConstant      = "Rollback failed"
	logFieldStageConstant              = "stage"
	logFieldTargetNameConstant         = "target_name"
	logFieldOriginalNameConstant       = "original_name"
	logFieldSourcePackageConstant      = "source_package"
	logFieldTargetPackageConstant      = "target_package"
	logFieldRolledBackConstant         = "rolled_back"
)

// Options configures a single rename.
type Options struct {
	ProjectPath   string
	TargetName    string
	Configuration Configuration
}

// Dependencies supplies collaborators used by the rename service.
type Dependencies struct {
	FileSystem afero.Fs
	Logger     *zap.Logger
	Errors     io.Writer
}

// Result describes a completed rename.
type Result struct {
	OriginalName   string
	OriginalPath   string
	TargetPath     string
	PackageRenames []PackageRename
}

// Plan describes what a rename would do without touching the filesystem.
type Plan struct {
	OriginalPath      string
	TargetPath        string
	OriginalName      string
	TargetName        string
	DestinationExists bool
	PackageRenames    []PackageRename
}

type stageFunction func(*RenameContext, Configuration, *Result) error

type workflowStage struct {
	stage   Stage
	execute stageFunction
}

// Service renames a library project.
type Service struct {
	fileSystem afero.Fs
	logger     *zap.Logger
	errors     io.Writer
	migrator   *Migrator
}

// NewService constructs a Service from dependencies. Missing collaborators fall back to the
// operating system filesystem, a no-op logger, and a discarding diagnostic writer.
func NewService(dependencies Dependencies) *Service {
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errorWriter := dependencies.Errors
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &Service{
		fileSystem: fileSystem,
		logger:     logger,
		errors:     errorWriter,
		migrator:   NewMigrator(fileSystem, logger),
	}
}

func (service *Service) workflowStages() []workflowStage {
	return []workflowStage{
		{stage: StageUpdateConfiguration, execute: service.updateProjectConfiguration},
		{stage: StageRewriteDocumentation, execute: service.rewriteDocumentationConfiguration},
		{stage: StageDiscardBuildMetadata, execute: service.discardBuildMetadata},
		{stage: StageRenamePackages, execute: service.renamePackages},
	}
}

// Execute copies the library to its new directory, rewrites its configuration and packages,
// and removes the original. Any failure after the copy began removes the new directory and
// leaves the original untouched.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	configuration := options.Configuration.Sanitize()

	renameContext, prepareError := service.prepare(options)
	if prepareError != nil {
		return Result{}, &StageError{Stage: StageReadTarget, Context: renameContext, Cause: prepareError}
	}

	result := Result{OriginalPath: renameContext.OriginalPath}

	if contextError := executionContext.Err(); contextError != nil {
		return result, &StageError{Stage: StageMigrate, Context: renameContext, Cause: contextError}
	}
	service.logStage(StageMigrate, renameContext)
	if migrateError := service.migrator.Migrate(&renameContext, configuration.DirectorySuffix); migrateError != nil {
		return result, service.abort(StageMigrate, renameContext, migrateError)
	}
	result.TargetPath = renameContext.TargetPath

	for _, workflowStep := range service.workflowStages() {
		if contextError := executionContext.Err(); contextError != nil {
			return result, service.abort(workflowStep.stage, renameContext, contextError)
		}
		service.logStage(workflowStep.stage, renameContext)
		if stageError := workflowStep.execute(&renameContext, configuration, &result); stageError != nil {
			return result, service.abort(workflowStep.stage, renameContext, stageError)
		}
	}

	service.logStage(StageCommit, renameContext)
	if commitError := service.migrator.Commit(renameContext); commitError != nil {
		service.logger.Error(stageFailedMessageConstant, zap.String(logFieldStageConstant, string(StageCommit)), zap.Error(commitError))
		return result, &StageError{Stage: StageCommit, Context: renameContext, Cause: commitError}
	}

	service.logger.Info(
		renameCompletedMessageConstant,
		zap.String(logFieldOriginalNameConstant, renameContext.OriginalName),
		zap.String(logFieldTargetNameConstant, renameContext.TargetName),
		zap.String(logFieldTargetPathConstant, renameContext.TargetPath),
	)
	return result, nil
}

// Plan resolves the rename without modifying anything. Package collisions are reported as
// errors exactly as Execute would report them.
func (service *Service) Plan(options Options) (Plan, error) {
	configuration := options.Configuration.Sanitize()

	renameContext, prepareError := service.prepare(options)
	if prepareError != nil {
		return Plan{}, prepareError
	}

	plan := Plan{
		OriginalPath: renameContext.OriginalPath,
		TargetName:   renameContext.TargetName,
		TargetPath:   DestinationPath(renameContext.OriginalPath, renameContext.TargetName, configuration.DirectorySuffix),
	}

	destinationExists, existsError := filesystem.Exists(service.fileSystem, plan.TargetPath)
	if existsError != nil {
		return plan, FilesystemError{Operation: filesystemOperationStatConstant, Path: plan.TargetPath, Cause: existsError}
	}
	plan.DestinationExists = destinationExists

	originalName, nameError := ReadLibraryName(service.fileSystem, plan.OriginalPath, configuration)
	if nameError != nil {
		return plan, nameError
	}
	plan.OriginalName = originalName

	packageNames, discoveryError := DiscoverPackages(service.fileSystem, plan.OriginalPath, configuration)
	if discoveryError != nil {
		return plan, discoveryError
	}

	renames, planError := PlanPackageRenames(service.fileSystem, plan.OriginalPath, originalName, plan.TargetName, packageNames)
	if planError != nil {
		return plan, planError
	}
	plan.PackageRenames = renames
	return plan, nil
}

func (service *Service) prepare(options Options) (RenameContext, error) {
	targetName := strings.TrimSpace(options.TargetName)
	if len(targetName) == 0 {
		return RenameContext{}, ErrMissingArgument
	}
	if !isSingleDirectoryName(targetName) {
		return RenameContext{TargetName: targetName}, InvalidTargetNameError{TargetName: targetName}
	}

	projectPath := strings.TrimSpace(options.ProjectPath)
	if len(projectPath) == 0 {
		projectPath = currentDirectoryConstant
	}
	absolutePath, absoluteError := filepath.Abs(projectPath)
	if absoluteError != nil {
		return RenameContext{TargetName: targetName}, FilesystemError{Operation: filesystemOperationResolveConstant, Path: projectPath, Cause: absoluteError}
	}

	return RenameContext{TargetName: targetName, OriginalPath: absolutePath}, nil
}

func isSingleDirectoryName(name string) bool {
	return name != currentDirectoryConstant && name != parentDirectoryConstant && !strings.ContainsAny(name, `/\`)
}

func (service *Service) abort(stage Stage, renameContext RenameContext, cause error) error {
	service.logger.Error(stageFailedMessageConstant, zap.String(logFieldStageConstant, string(stage)), zap.Error(cause))

	rolledBack, rollbackError := service.migrator.Rollback(renameContext)
	if rollbackError != nil {
		service.logger.Error(rollbackFailedMessageConstant, zap.String(logFieldTargetPathConstant, renameContext.TargetPath), zap.Error(rollbackError))
		cause = errors.Join(cause, rollbackError)
	}
	return &StageError{Stage: stage, Context: renameContext, Cause: cause, RolledBack: rolledBack}
}

func (service *Service) logStage(stage Stage, renameContext RenameContext) {
	service.logger.Info(
		stageStartedMessageConstant,
		zap.String(logFieldStageConstant, string(stage)),
		zap.String(logFieldTargetNameConstant, renameContext.TargetName),
		zap.String(logFieldOriginalPathConstant, renameContext.OriginalPath),
		zap.String(logFieldTargetPathConstant, renameContext.TargetPath),
	)
}

func (service *Service) logPackageRenames(renames []PackageRename) {
	for _, packageRename := range renames {
		if packageRename.Unchanged() {
			continue
		}
		service.logger.Info(
			packageRenamedMessageConstant,
			zap.String(logFieldSourcePackageConstant, packageRename.SourceName),
			zap.String(logFieldTargetPackageConstant, packageRename.TargetName),
		)
	}
}

func (service *Service) printfError(format string, arguments ...any) {
	fmt.Fprintf(service.errors, format, arguments...)
}
