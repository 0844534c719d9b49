package librename

import (
	"fmt"
	"io"
)

const (
	planReadyMessage       = "PLAN-OK: %s → %s\n"
	planCaseOnlyMessage    = "PLAN-CASE-ONLY: %s → %s (two-step move required)\n"
	planSkipAlreadyMessage = "PLAN-SKIP (already named): %s\n"
	planSkipExistsMessage  = "PLAN-SKIP (target exists): %s\n"
	planLibraryNameMessage = "PLAN-NAME: %s → %s\n"
)

// WritePlan prints one line for the library root, one for the library name, and one for
// every package directory.
func WritePlan(writer io.Writer, plan Plan) error {
	if plan.DestinationExists {
		_, writeError := fmt.Fprintf(writer, planSkipExistsMessage, plan.TargetPath)
		return writeError
	}

	planLines := []string{
		fmt.Sprintf(planReadyMessage, plan.OriginalPath, plan.TargetPath),
		fmt.Sprintf(planLibraryNameMessage, plan.OriginalName, plan.TargetName),
	}
	for _, packageRename := range plan.PackageRenames {
		switch {
		case packageRename.Unchanged():
			planLines = append(planLines, fmt.Sprintf(planSkipAlreadyMessage, packageRename.SourceName))
		case packageRename.caseOnly():
			planLines = append(planLines, fmt.Sprintf(planCaseOnlyMessage, packageRename.SourceName, packageRename.TargetName))
		default:
			planLines = append(planLines, fmt.Sprintf(planReadyMessage, packageRename.SourceName, packageRename.TargetName))
		}
	}

	for _, planLine := range planLines {
		if _, writeError := io.WriteString(writer, planLine); writeError != nil {
			return writeError
		}
	}
	return nil
}
