package naming

import "regexp"

const caseInsensitiveFlagConstant = "(?i)"

// SubstitutePackageName returns the directory name a top-level package receives when the
// library originalLibraryName is renamed to targetLibraryName.
//
// When packageName embeds originalLibraryName (compared case-insensitively) the first such
// occurrence is replaced by targetLibraryName and the surrounding text keeps its casing, so
// widgets_cli becomes gadgets_cli. Any other package is renamed to targetLibraryName verbatim.
func SubstitutePackageName(originalLibraryName string, packageName string, targetLibraryName string) string {
	matchStart, matchEnd, embedded := locateLibraryName(originalLibraryName, packageName)
	if !embedded {
		return targetLibraryName
	}
	return packageName[:matchStart] + targetLibraryName + packageName[matchEnd:]
}

// EmbedsLibraryName reports whether packageName contains originalLibraryName, ignoring case.
func EmbedsLibraryName(originalLibraryName string, packageName string) bool {
	_, _, embedded := locateLibraryName(originalLibraryName, packageName)
	return embedded
}

func locateLibraryName(originalLibraryName string, packageName string) (int, int, bool) {
	if len(originalLibraryName) == 0 {
		return 0, 0, false
	}

	libraryNamePattern := regexp.MustCompile(caseInsensitiveFlagConstant + regexp.QuoteMeta(originalLibraryName))
	matchBounds := libraryNamePattern.FindStringIndex(packageName)
	if matchBounds == nil {
		return 0, 0, false
	}
	return matchBounds[0], matchBounds[1], true
}
