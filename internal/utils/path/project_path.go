package pathutils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	currentDirectoryConstant        = "."
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// DirectoryProvider resolves a directory such as the user's home or the working directory.
type DirectoryProvider func() (string, error)

// ProjectPathResolver turns a user supplied project path into an absolute, cleaned path.
type ProjectPathResolver struct {
	homeDirectoryProvider    DirectoryProvider
	workingDirectoryProvider DirectoryProvider
}

// NewProjectPathResolver constructs a resolver backed by the operating system.
func NewProjectPathResolver() *ProjectPathResolver {
	return NewProjectPathResolverWithProviders(os.UserHomeDir, os.Getwd)
}

// NewProjectPathResolverWithProviders constructs a resolver with custom directory lookups.
func NewProjectPathResolverWithProviders(homeDirectoryProvider DirectoryProvider, workingDirectoryProvider DirectoryProvider) *ProjectPathResolver {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &ProjectPathResolver{
		homeDirectoryProvider:    homeDirectoryProvider,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// Resolve trims candidatePath, expands a leading tilde, and anchors relative paths at the
// working directory. A blank candidate resolves to the working directory itself.
func (resolver *ProjectPathResolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		trimmedPath = currentDirectoryConstant
	}

	expandedPath, expandError := resolver.expandHome(trimmedPath)
	if expandError != nil {
		return "", expandError
	}
	if filepath.IsAbs(expandedPath) {
		return filepath.Clean(expandedPath), nil
	}

	workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	return filepath.Join(workingDirectory, expandedPath), nil
}

func (resolver *ProjectPathResolver) expandHome(candidatePath string) (string, error) {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath, nil
	}

	var relativePath string
	switch {
	case candidatePath == tildeSymbolConstant:
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		relativePath = strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant)
	case strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix):
		relativePath = strings.TrimPrefix(candidatePath, tildeWithPathSeparatorPrefix)
	default:
		// ~otheruser is left for the caller's shell.
		return candidatePath, nil
	}

	homeDirectory, homeDirectoryError := resolver.homeDirectoryProvider()
	if homeDirectoryError != nil {
		return "", homeDirectoryError
	}
	return filepath.Join(homeDirectory, relativePath), nil
}
