package librename

import "path/filepath"

// RenameContext carries the state of a single rename through the workflow stages.
type RenameContext struct {
	TargetName   string
	OriginalName string
	OriginalPath string
	TargetPath   string
	// DestinationCreated becomes true once TargetPath exists on disk, possibly holding a
	// partial copy. It never reverts and is the only input rollback consults.
	DestinationCreated bool
}

// DestinationPath returns the sibling directory a library root is copied to.
func DestinationPath(originalPath string, targetName string, directorySuffix string) string {
	return filepath.Join(filepath.Dir(originalPath), targetName+directorySuffix)
}
