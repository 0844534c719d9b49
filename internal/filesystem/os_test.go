package filesystem_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pyrename/internal/filesystem"
)

type permissionDeniedOnceFileSystem struct {
	afero.Fs
	denyNextRemoval bool
	removeAttempts  int
}

func (fileSystem *permissionDeniedOnceFileSystem) RemoveAll(path string) error {
	fileSystem.removeAttempts++
	if fileSystem.denyNextRemoval {
		fileSystem.denyNextRemoval = false
		return &fs.PathError{Op: "unlinkat", Path: path, Err: fs.ErrPermission}
	}
	return fileSystem.Fs.RemoveAll(path)
}

func TestCopyTreeCopiesEveryEntry(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	sourceFiles := map[string]string{
		"/work/widgets-py/setup.cfg":             "[metadata]\nname = widgets\n",
		"/work/widgets-py/.gitignore":            "*.pyc\n",
		"/work/widgets-py/widgets/__init__.py":   "",
		"/work/widgets-py/widgets/core/model.py": "class Model: ...\n",
	}
	for path, content := range sourceFiles {
		require.NoError(testInstance, afero.WriteFile(fileSystem, path, []byte(content), 0o640))
	}
	require.NoError(testInstance, fileSystem.MkdirAll("/work/widgets-py/empty", 0o755))
	require.NoError(testInstance, fileSystem.MkdirAll("/work/gadgets-py", 0o755))

	require.NoError(testInstance, filesystem.CopyTree(fileSystem, "/work/widgets-py", "/work/gadgets-py"))

	for path, content := range sourceFiles {
		copiedPath := filepath.Join("/work/gadgets-py", path[len("/work/widgets-py"):])
		copiedContent, readError := afero.ReadFile(fileSystem, copiedPath)
		require.NoError(testInstance, readError)
		require.Equal(testInstance, content, string(copiedContent))

		copiedInfo, statError := fileSystem.Stat(copiedPath)
		require.NoError(testInstance, statError)
		require.Equal(testInstance, fs.FileMode(0o640), copiedInfo.Mode().Perm())
	}

	emptyDirectoryExists, existsError := afero.DirExists(fileSystem, "/work/gadgets-py/empty")
	require.NoError(testInstance, existsError)
	require.True(testInstance, emptyDirectoryExists)

	originalStillExists, originalError := filesystem.Exists(fileSystem, "/work/widgets-py/setup.cfg")
	require.NoError(testInstance, originalError)
	require.True(testInstance, originalStillExists)
}

func TestCopyTreeFailsForMissingSource(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, fileSystem.MkdirAll("/work/gadgets-py", 0o755))

	require.Error(testInstance, filesystem.CopyTree(fileSystem, "/work/widgets-py", "/work/gadgets-py"))
}

func TestRemoveTree(testInstance *testing.T) {
	testCases := []struct {
		name             string
		createTree       bool
		denyFirstRemoval bool
		expectedAttempts int
	}{
		{name: "removes_existing_tree", createTree: true, expectedAttempts: 1},
		{name: "missing_tree_is_not_an_error", createTree: false, expectedAttempts: 1},
		{name: "permission_denied_is_forced", createTree: true, denyFirstRemoval: true, expectedAttempts: 2},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			memoryFileSystem := afero.NewMemMapFs()
			if testCase.createTree {
				require.NoError(testInstance, afero.WriteFile(memoryFileSystem, "/work/widgets.egg-info/PKG-INFO", []byte("Name: widgets\n"), 0o444))
				require.NoError(testInstance, memoryFileSystem.Chmod("/work/widgets.egg-info", 0o500))
			}

			fileSystem := &permissionDeniedOnceFileSystem{Fs: memoryFileSystem, denyNextRemoval: testCase.denyFirstRemoval}

			require.NoError(testInstance, filesystem.RemoveTree(fileSystem, "/work/widgets.egg-info"))

			exists, existsError := filesystem.Exists(memoryFileSystem, "/work/widgets.egg-info")
			require.NoError(testInstance, existsError)
			require.False(testInstance, exists)
			require.Equal(testInstance, testCase.expectedAttempts, fileSystem.removeAttempts)
		})
	}
}

func TestRemoveTreeUnlocksOperatingSystemDirectories(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	lockedDirectory := filepath.Join(temporaryRoot, "widgets.egg-info")
	nestedDirectory := filepath.Join(lockedDirectory, "nested")
	require.NoError(testInstance, os.MkdirAll(nestedDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(nestedDirectory, "SOURCES.txt"), []byte("widgets/__init__.py\n"), 0o644))
	require.NoError(testInstance, os.Chmod(nestedDirectory, 0o500))
	require.NoError(testInstance, os.Chmod(lockedDirectory, 0o500))

	require.NoError(testInstance, filesystem.RemoveTree(filesystem.NewOSFileSystem(), lockedDirectory))

	_, statError := os.Stat(lockedDirectory)
	require.ErrorIs(testInstance, statError, fs.ErrNotExist)
}

func TestCopyTreeRecreatesSymbolicLinks(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	sourceRoot := filepath.Join(temporaryRoot, "widgets-py")
	destinationRoot := filepath.Join(temporaryRoot, "gadgets-py")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(sourceRoot, "widgets"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(sourceRoot, "widgets", "__init__.py"), []byte("VALUE = 1\n"), 0o644))
	require.NoError(testInstance, os.Symlink(filepath.Join("widgets", "__init__.py"), filepath.Join(sourceRoot, "entry.py")))
	require.NoError(testInstance, os.Mkdir(destinationRoot, 0o755))

	require.NoError(testInstance, filesystem.CopyTree(filesystem.NewOSFileSystem(), sourceRoot, destinationRoot))

	linkTarget, readLinkError := os.Readlink(filepath.Join(destinationRoot, "entry.py"))
	require.NoError(testInstance, readLinkError)
	require.Equal(testInstance, filepath.Join("widgets", "__init__.py"), linkTarget)

	linkedContent, readError := os.ReadFile(filepath.Join(destinationRoot, "entry.py"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "VALUE = 1\n", string(linkedContent))
}
