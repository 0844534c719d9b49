package librename

import (
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pyrename/internal/filesystem"
)

const (
	destinationCreatedMessageConstant = "New library directory created"
	treeCopiedMessageConstant         = "Library tree copied"
	rollbackMessageConstant           = "Removing new library directory after failure"
	commitMessageConstant             = "Removing original library directory"
	logFieldOriginalPathConstant      = "original_path"
	logFieldTargetPathConstant        = "target_path"
	logFieldRemovedPathConstant       = "removed_path"
	destinationOwnerBitsConstant      = fs.FileMode(0o700)
)

// RollbackPlan lists the paths that must be deleted to undo a partially completed rename.
type RollbackPlan struct {
	RemovePaths []string
}

// Empty reports whether the plan has nothing to undo.
func (plan RollbackPlan) Empty() bool {
	return len(plan.RemovePaths) == 0
}

// PlanRollback derives the rollback for renameContext. Only a destination this rename
// created is ever scheduled for removal; the original tree is never touched.
func PlanRollback(renameContext RenameContext) RollbackPlan {
	if !renameContext.DestinationCreated || len(renameContext.TargetPath) == 0 {
		return RollbackPlan{}
	}
	return RollbackPlan{RemovePaths: []string{renameContext.TargetPath}}
}

// Migrator copies a library root to its destination and finalizes or undoes that copy.
type Migrator struct {
	fileSystem afero.Fs
	logger     *zap.Logger
}

// NewMigrator constructs a Migrator operating on fileSystem.
func NewMigrator(fileSystem afero.Fs, logger *zap.Logger) *Migrator {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{fileSystem: fileSystem, logger: logger}
}

// Migrate computes the destination path and copies the original tree into it. The
// destination must not exist beforehand. DestinationCreated is set as soon as the
// destination directory exists, so a copy that fails midway is still rolled back.
func (migrator *Migrator) Migrate(renameContext *RenameContext, directorySuffix string) error {
	renameContext.TargetPath = DestinationPath(renameContext.OriginalPath, renameContext.TargetName, directorySuffix)

	destinationExists, existsError := filesystem.Exists(migrator.fileSystem, renameContext.TargetPath)
	if existsError != nil {
		return FilesystemError{Operation: filesystemOperationStatConstant, Path: renameContext.TargetPath, Cause: existsError}
	}
	if destinationExists {
		return DestinationExistsError{Path: renameContext.TargetPath}
	}

	originalInfo, statError := migrator.fileSystem.Stat(renameContext.OriginalPath)
	if statError != nil {
		return FilesystemError{Operation: filesystemOperationStatConstant, Path: renameContext.OriginalPath, Cause: statError}
	}
	if !originalInfo.IsDir() {
		return FilesystemError{Operation: filesystemOperationUseAsRootConstant, Path: renameContext.OriginalPath, Cause: fs.ErrInvalid}
	}

	if createError := migrator.fileSystem.Mkdir(renameContext.TargetPath, originalInfo.Mode().Perm()|destinationOwnerBitsConstant); createError != nil {
		return FilesystemError{Operation: filesystemOperationCreateConstant, Path: renameContext.TargetPath, Cause: createError}
	}
	renameContext.DestinationCreated = true
	migrator.logger.Info(destinationCreatedMessageConstant, zap.String(logFieldTargetPathConstant, renameContext.TargetPath))

	if copyError := filesystem.CopyTree(migrator.fileSystem, renameContext.OriginalPath, renameContext.TargetPath); copyError != nil {
		return FilesystemError{Operation: filesystemOperationCopyConstant, Path: renameContext.TargetPath, Cause: copyError}
	}

	migrator.logger.Info(
		treeCopiedMessageConstant,
		zap.String(logFieldOriginalPathConstant, renameContext.OriginalPath),
		zap.String(logFieldTargetPathConstant, renameContext.TargetPath),
	)
	return nil
}

// Commit deletes the original tree once every other stage has succeeded.
func (migrator *Migrator) Commit(renameContext RenameContext) error {
	migrator.logger.Info(commitMessageConstant, zap.String(logFieldOriginalPathConstant, renameContext.OriginalPath))
	if removeError := filesystem.RemoveTree(migrator.fileSystem, renameContext.OriginalPath); removeError != nil {
		return FilesystemError{Operation: filesystemOperationRemoveConstant, Path: renameContext.OriginalPath, Cause: removeError}
	}
	return nil
}

// Rollback applies PlanRollback(renameContext) and reports whether anything was removed.
func (migrator *Migrator) Rollback(renameContext RenameContext) (bool, error) {
	plan := PlanRollback(renameContext)
	if plan.Empty() {
		return false, nil
	}

	for _, removePath := range plan.RemovePaths {
		migrator.logger.Warn(rollbackMessageConstant, zap.String(logFieldRemovedPathConstant, removePath))
		if removeError := filesystem.RemoveTree(migrator.fileSystem, removePath); removeError != nil {
			return false, fmt.Errorf(rollbackFailureTemplateConstant, removePath, removeError)
		}
	}
	return true, nil
}
