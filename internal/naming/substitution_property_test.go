package naming_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/temirov/pyrename/internal/naming"
)

func TestSubstitutePackageNameProperties(testInstance *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	nonEmptyAlphaString := gen.AlphaString().SuchThat(func(candidate string) bool {
		return len(candidate) > 0
	})

	properties.Property("embedded library name is replaced in place", prop.ForAll(
		func(prefix string, originalLibraryName string, suffix string, targetLibraryName string) bool {
			packageName := prefix + originalLibraryName + suffix
			return naming.SubstitutePackageName(originalLibraryName, packageName, targetLibraryName) == prefix+targetLibraryName+suffix
		},
		gen.NumString(),
		nonEmptyAlphaString,
		gen.AlphaString(),
		nonEmptyAlphaString,
	))

	properties.Property("match ignores the casing of the occurrence", prop.ForAll(
		func(prefix string, originalLibraryName string, suffix string, targetLibraryName string) bool {
			packageName := prefix + strings.ToUpper(originalLibraryName) + suffix
			return naming.SubstitutePackageName(strings.ToLower(originalLibraryName), packageName, targetLibraryName) == prefix+targetLibraryName+suffix
		},
		gen.NumString(),
		nonEmptyAlphaString,
		gen.NumString(),
		nonEmptyAlphaString,
	))

	properties.Property("unrelated package takes the bare target name", prop.ForAll(
		func(originalLibraryName string, packageName string, targetLibraryName string) bool {
			return naming.SubstitutePackageName(originalLibraryName, packageName, targetLibraryName) == targetLibraryName
		},
		nonEmptyAlphaString,
		gen.NumString(),
		nonEmptyAlphaString,
	))

	properties.TestingRun(testInstance)
}
