package librename

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/pyrename/internal/filesystem"
	"github.com/temirov/pyrename/internal/naming"
)

const (
	hiddenEntryPrefixConstant          = "."
	intermediateRenameTemplate         = "%s.rename.%d"
	intermediateRenameAttemptsConstant = 5
)

// PackageRename describes the renaming of one top-level package directory.
type PackageRename struct {
	SourceName string
	TargetName string
	SourcePath string
	TargetPath string
}

// Unchanged reports whether the package already carries its new name.
func (packageRename PackageRename) Unchanged() bool {
	return packageRename.SourceName == packageRename.TargetName
}

func (packageRename PackageRename) caseOnly() bool {
	return strings.EqualFold(packageRename.SourceName, packageRename.TargetName) && !packageRename.Unchanged()
}

// DiscoverPackages lists the top-level directories of libraryRoot that directly contain the
// package marker, sorted by name. Hidden directories and the excluded tooling directory
// (matched case-insensitively) never qualify. ErrNoPackagesFound is returned when nothing
// qualifies.
func DiscoverPackages(fileSystem afero.Fs, libraryRoot string, configuration Configuration) ([]string, error) {
	entries, readError := afero.ReadDir(fileSystem, libraryRoot)
	if readError != nil {
		return nil, FilesystemError{Operation: filesystemOperationListConstant, Path: libraryRoot, Cause: readError}
	}

	var packageNames []string
	for _, entry := range entries {
		entryName := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(entryName, hiddenEntryPrefixConstant) {
			continue
		}
		if strings.EqualFold(entryName, configuration.ExcludedDirectory) {
			continue
		}

		markerPath := filepath.Join(libraryRoot, entryName, configuration.PackageMarker)
		markerInfo, statError := fileSystem.Stat(markerPath)
		if statError != nil {
			if errors.Is(statError, fs.ErrNotExist) {
				continue
			}
			return nil, FilesystemError{Operation: filesystemOperationStatConstant, Path: markerPath, Cause: statError}
		}
		if markerInfo.IsDir() {
			continue
		}

		packageNames = append(packageNames, entryName)
	}

	if len(packageNames) == 0 {
		return nil, ErrNoPackagesFound
	}
	return packageNames, nil
}

// PlanPackageRenames computes the new name of every package and verifies, before anything is
// renamed, that no two packages claim the same name and that no new name is already taken
// on disk.
func PlanPackageRenames(fileSystem afero.Fs, libraryRoot string, originalLibraryName string, targetLibraryName string, packageNames []string) ([]PackageRename, error) {
	claimedTargets := make(map[string]string, len(packageNames))
	renames := make([]PackageRename, 0, len(packageNames))

	for _, packageName := range packageNames {
		targetName := naming.SubstitutePackageName(originalLibraryName, packageName, targetLibraryName)
		packageRename := PackageRename{
			SourceName: packageName,
			TargetName: targetName,
			SourcePath: filepath.Join(libraryRoot, packageName),
			TargetPath: filepath.Join(libraryRoot, targetName),
		}

		if _, alreadyClaimed := claimedTargets[targetName]; alreadyClaimed {
			return nil, PackageRenameCollisionError{SourceName: packageName, TargetName: targetName, TargetPath: packageRename.TargetPath}
		}
		claimedTargets[targetName] = packageName

		if !packageRename.Unchanged() && !packageRename.caseOnly() {
			targetExists, existsError := filesystem.Exists(fileSystem, packageRename.TargetPath)
			if existsError != nil {
				return nil, FilesystemError{Operation: filesystemOperationStatConstant, Path: packageRename.TargetPath, Cause: existsError}
			}
			if targetExists {
				return nil, PackageRenameCollisionError{SourceName: packageName, TargetName: targetName, TargetPath: packageRename.TargetPath}
			}
		}

		renames = append(renames, packageRename)
	}

	return renames, nil
}

// ApplyPackageRenames performs planned renames in order. Case-only renames move through an
// intermediate name so they also succeed on case-insensitive filesystems.
func ApplyPackageRenames(fileSystem afero.Fs, renames []PackageRename) error {
	for _, packageRename := range renames {
		if packageRename.Unchanged() {
			continue
		}

		var renameError error
		if packageRename.caseOnly() {
			renameError = renameThroughIntermediate(fileSystem, packageRename.SourcePath, packageRename.TargetPath)
		} else {
			renameError = fileSystem.Rename(packageRename.SourcePath, packageRename.TargetPath)
		}
		if renameError != nil {
			return FilesystemError{Operation: filesystemOperationRenameConstant, Path: packageRename.SourcePath, Cause: renameError}
		}
	}
	return nil
}

func renameThroughIntermediate(fileSystem afero.Fs, sourcePath string, targetPath string) error {
	var renameError error
	for attempt := 0; attempt < intermediateRenameAttemptsConstant; attempt++ {
		intermediatePath := fmt.Sprintf(intermediateRenameTemplate, sourcePath, attempt)
		if renameError = fileSystem.Rename(sourcePath, intermediatePath); renameError != nil {
			continue
		}
		if renameError = fileSystem.Rename(intermediatePath, targetPath); renameError == nil {
			return nil
		}
		_ = fileSystem.Rename(intermediatePath, sourcePath)
	}
	return renameError
}
