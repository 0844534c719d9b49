package librename

import (
	"errors"
	"fmt"
)

const (
	missingArgumentMessageConstant       = "new library name must be provided"
	noPackagesFoundMessageConstant       = "no packages found in library"
	invalidTargetNameTemplateConstant    = "invalid library name %q: must be a single directory name"
	invalidLibraryNameTemplateConstant   = "invalid metadata.name %q: must be a single directory name"
	destinationExistsTemplateConstant    = "directory %s exists"
	templateMissingTemplateConstant      = "documentation template %s missing: %v"
	packageCollisionTemplateConstant     = "package %s cannot be renamed to %s: %s already exists"
	filesystemErrorTemplateConstant      = "unable to %s %s: %v"
	stageErrorTemplateConstant           = "%s failed: %v"
	stageErrorRolledBackTemplateConstant = "%s failed (new directory %s removed): %v"
	rollbackFailureTemplateConstant      = "unable to remove new directory %s: %w"
	filesystemOperationStatConstant      = "inspect"
	filesystemOperationCreateConstant    = "create"
	filesystemOperationCopyConstant      = "copy into"
	filesystemOperationRemoveConstant    = "remove"
	filesystemOperationReadConstant      = "read"
	filesystemOperationWriteConstant     = "write"
	filesystemOperationRenameConstant    = "rename"
	filesystemOperationResolveConstant   = "resolve"
	filesystemOperationListConstant      = "list"
	filesystemOperationUseAsRootConstant = "use as library root"
)

var (
	// ErrMissingArgument indicates that no new library name was supplied.
	ErrMissingArgument = errors.New(missingArgumentMessageConstant)
	// ErrNoPackagesFound indicates the library root holds no package directories.
	ErrNoPackagesFound = errors.New(noPackagesFoundMessageConstant)
)

// Stage names a step of the rename workflow.
type Stage string

// Workflow stages in execution order.
const (
	StageReadTarget           Stage = "read-target"
	StageMigrate              Stage = "migrate"
	StageUpdateConfiguration  Stage = "update-config"
	StageRewriteDocumentation Stage = "rewrite-docs-config"
	StageDiscardBuildMetadata Stage = "discard-build-metadata"
	StageRenamePackages       Stage = "rename-packages"
	StageCommit               Stage = "commit"
)

// InvalidTargetNameError reports a new library name that cannot be used as a directory name.
type InvalidTargetNameError struct {
	TargetName string
}

// Error describes the invalid name.
func (nameError InvalidTargetNameError) Error() string {
	return fmt.Sprintf(invalidTargetNameTemplateConstant, nameError.TargetName)
}

// InvalidLibraryNameError reports a metadata.name that cannot be used to build paths inside the library.
type InvalidLibraryNameError struct {
	LibraryName string
}

// Error describes the invalid name.
func (nameError InvalidLibraryNameError) Error() string {
	return fmt.Sprintf(invalidLibraryNameTemplateConstant, nameError.LibraryName)
}

// DestinationExistsError reports that the destination directory is already present.
type DestinationExistsError struct {
	Path string
}

// Error describes the existing destination.
func (existsError DestinationExistsError) Error() string {
	return fmt.Sprintf(destinationExistsTemplateConstant, existsError.Path)
}

// TemplateMissingError reports an absent documentation template.
type TemplateMissingError struct {
	Path  string
	Cause error
}

// Error describes the missing template.
func (templateError TemplateMissingError) Error() string {
	return fmt.Sprintf(templateMissingTemplateConstant, templateError.Path, templateError.Cause)
}

// Unwrap exposes the underlying read failure.
func (templateError TemplateMissingError) Unwrap() error {
	return templateError.Cause
}

// PackageRenameCollisionError reports a package whose new name is already taken, either by an
// existing directory or by another package of the same library.
type PackageRenameCollisionError struct {
	SourceName string
	TargetName string
	TargetPath string
}

// Error describes the collision.
func (collisionError PackageRenameCollisionError) Error() string {
	return fmt.Sprintf(packageCollisionTemplateConstant, collisionError.SourceName, collisionError.TargetName, collisionError.TargetPath)
}

// FilesystemError wraps a failed filesystem operation.
type FilesystemError struct {
	Operation string
	Path      string
	Cause     error
}

// Error describes the failed operation.
func (filesystemError FilesystemError) Error() string {
	return fmt.Sprintf(filesystemErrorTemplateConstant, filesystemError.Operation, filesystemError.Path, filesystemError.Cause)
}

// Unwrap exposes the operating system error.
func (filesystemError FilesystemError) Unwrap() error {
	return filesystemError.Cause
}

// StageError reports the workflow stage that failed together with the rename state at the
// time of failure and whether the new directory was rolled back.
type StageError struct {
	Stage      Stage
	Context    RenameContext
	Cause      error
	RolledBack bool
}

// Error describes the failed stage.
func (stageError *StageError) Error() string {
	if stageError.RolledBack {
		return fmt.Sprintf(stageErrorRolledBackTemplateConstant, stageError.Stage, stageError.Context.TargetPath, stageError.Cause)
	}
	return fmt.Sprintf(stageErrorTemplateConstant, stageError.Stage, stageError.Cause)
}

// Unwrap exposes the failure that aborted the stage.
func (stageError *StageError) Unwrap() error {
	return stageError.Cause
}
