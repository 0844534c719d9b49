package pathutils_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/pyrename/internal/utils/path"
)

const (
	testHomeDirectoryConstant    = "/home/developer"
	testWorkingDirectoryConstant = "/srv/projects"
)

func TestProjectPathResolverResolve(testInstance *testing.T) {
	testCases := []struct {
		name         string
		candidate    string
		homeError    error
		expectedPath string
		expectError  bool
	}{
		{name: "blank_uses_working_directory", candidate: "  ", expectedPath: testWorkingDirectoryConstant},
		{name: "relative_path", candidate: "widgets-py", expectedPath: "/srv/projects/widgets-py"},
		{name: "relative_parent", candidate: "../libs/widgets-py/", expectedPath: "/srv/libs/widgets-py"},
		{name: "absolute_path_cleaned", candidate: "/opt//widgets-py/.", expectedPath: "/opt/widgets-py"},
		{name: "tilde_alone", candidate: "~", expectedPath: testHomeDirectoryConstant},
		{name: "tilde_prefix", candidate: "~/code/widgets-py", expectedPath: "/home/developer/code/widgets-py"},
		{name: "other_user_untouched", candidate: "~other/widgets-py", expectedPath: "/srv/projects/~other/widgets-py"},
		{name: "home_lookup_failure", candidate: "~/widgets-py", homeError: errors.New("no home"), expectError: true},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolver := pathutils.NewProjectPathResolverWithProviders(
				func() (string, error) { return testHomeDirectoryConstant, testCase.homeError },
				func() (string, error) { return testWorkingDirectoryConstant, nil },
			)

			resolvedPath, resolveError := resolver.Resolve(testCase.candidate)
			if testCase.expectError {
				require.Error(testInstance, resolveError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedPath, resolvedPath)
		})
	}
}
