package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	forcedDirectoryPermissionsConstant = fs.FileMode(0o700)
	writableDirectoryBitsConstant      = fs.FileMode(0o700)
	copyWalkErrorTemplateConstant      = "unable to copy %s to %s: %w"
	relativePathErrorTemplateConstant  = "unable to resolve %s relative to %s: %w"
	createDirectoryErrorTemplate       = "unable to create directory %s: %w"
	openSourceErrorTemplateConstant    = "unable to open %s: %w"
	createFileErrorTemplateConstant    = "unable to create %s: %w"
	copyContentErrorTemplateConstant   = "unable to copy content into %s: %w"
	readLinkErrorTemplateConstant      = "unable to read symbolic link %s: %w"
	createLinkErrorTemplateConstant    = "unable to create symbolic link %s: %w"
	restorePermissionsErrorTemplate    = "unable to restore permissions on %s: %w"
	forcePermissionsErrorTemplate      = "unable to force permissions on %s: %w"
)

// NewOSFileSystem returns the operating system filesystem.
func NewOSFileSystem() afero.Fs {
	return afero.NewOsFs()
}

// Exists reports whether path exists.
func Exists(fileSystem afero.Fs, path string) (bool, error) {
	return afero.Exists(fileSystem, path)
}

// CopyTree copies every entry beneath sourceRoot into destinationRoot, which must already
// exist. Files keep their permissions and modification times, directories their
// permissions, and symbolic links are recreated when the filesystem supports them.
// A failure leaves whatever was copied so far in place.
func CopyTree(fileSystem afero.Fs, sourceRoot string, destinationRoot string) error {
	var copiedDirectories []copiedDirectory

	walkError := afero.Walk(fileSystem, sourceRoot, func(sourcePath string, info fs.FileInfo, walkError error) error {
		if walkError != nil {
			return walkError
		}

		relativePath, relativeError := filepath.Rel(sourceRoot, sourcePath)
		if relativeError != nil {
			return fmt.Errorf(relativePathErrorTemplateConstant, sourcePath, sourceRoot, relativeError)
		}
		destinationPath := filepath.Join(destinationRoot, relativePath)

		switch {
		case info.IsDir():
			copiedDirectories = append(copiedDirectories, copiedDirectory{path: destinationPath, permissions: info.Mode().Perm()})
			if creationError := fileSystem.MkdirAll(destinationPath, info.Mode().Perm()|writableDirectoryBitsConstant); creationError != nil {
				return fmt.Errorf(createDirectoryErrorTemplate, destinationPath, creationError)
			}
			return nil
		case info.Mode()&fs.ModeSymlink != 0:
			if copied, linkError := copySymbolicLink(fileSystem, sourcePath, destinationPath); copied || linkError != nil {
				return linkError
			}
			return copyFile(fileSystem, sourcePath, destinationPath, info)
		default:
			return copyFile(fileSystem, sourcePath, destinationPath, info)
		}
	})
	if walkError != nil {
		return fmt.Errorf(copyWalkErrorTemplateConstant, sourceRoot, destinationRoot, walkError)
	}

	for directoryIndex := len(copiedDirectories) - 1; directoryIndex >= 0; directoryIndex-- {
		directory := copiedDirectories[directoryIndex]
		if chmodError := fileSystem.Chmod(directory.path, directory.permissions); chmodError != nil {
			return fmt.Errorf(restorePermissionsErrorTemplate, directory.path, chmodError)
		}
	}
	return nil
}

// RemoveTree deletes path and everything beneath it. When the removal is refused for lack
// of permissions every directory in the tree is made owner-writable and the removal is
// retried once. A missing path is not an error.
func RemoveTree(fileSystem afero.Fs, path string) error {
	removeError := fileSystem.RemoveAll(path)
	if removeError == nil || !errors.Is(removeError, fs.ErrPermission) {
		return removeError
	}

	if forceError := forceOwnerPermissions(fileSystem, path); forceError != nil {
		return errors.Join(removeError, forceError)
	}
	return fileSystem.RemoveAll(path)
}

func forceOwnerPermissions(fileSystem afero.Fs, root string) error {
	return afero.Walk(fileSystem, root, func(path string, info fs.FileInfo, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !info.IsDir() {
			return nil
		}
		if chmodError := fileSystem.Chmod(path, forcedDirectoryPermissionsConstant); chmodError != nil {
			return fmt.Errorf(forcePermissionsErrorTemplate, path, chmodError)
		}
		return nil
	})
}

func copyFile(fileSystem afero.Fs, sourcePath string, destinationPath string, info fs.FileInfo) error {
	sourceFile, openError := fileSystem.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(openSourceErrorTemplateConstant, sourcePath, openError)
	}
	defer sourceFile.Close()

	destinationFile, createError := fileSystem.OpenFile(destinationPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if createError != nil {
		return fmt.Errorf(createFileErrorTemplateConstant, destinationPath, createError)
	}

	_, copyError := io.Copy(destinationFile, sourceFile)
	closeError := destinationFile.Close()
	if joinedError := errors.Join(copyError, closeError); joinedError != nil {
		return fmt.Errorf(copyContentErrorTemplateConstant, destinationPath, joinedError)
	}

	// OpenFile applies the umask; restore the source permissions exactly.
	if chmodError := fileSystem.Chmod(destinationPath, info.Mode().Perm()); chmodError != nil {
		return fmt.Errorf(restorePermissionsErrorTemplate, destinationPath, chmodError)
	}
	return fileSystem.Chtimes(destinationPath, info.ModTime(), info.ModTime())
}

func copySymbolicLink(fileSystem afero.Fs, sourcePath string, destinationPath string) (bool, error) {
	symlinker, supportsLinks := fileSystem.(afero.Symlinker)
	if !supportsLinks {
		return false, nil
	}

	linkTarget, readError := symlinker.ReadlinkIfPossible(sourcePath)
	if readError != nil {
		return false, fmt.Errorf(readLinkErrorTemplateConstant, sourcePath, readError)
	}
	if linkError := symlinker.SymlinkIfPossible(linkTarget, destinationPath); linkError != nil {
		return false, fmt.Errorf(createLinkErrorTemplateConstant, destinationPath, linkError)
	}
	return true, nil
}

type copiedDirectory struct {
	path        string
	permissions fs.FileMode
}
