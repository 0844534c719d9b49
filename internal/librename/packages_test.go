package librename_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pyrename/internal/librename"
)

const packagesRootConstant = "/library"

func TestDiscoverPackages(testInstance *testing.T) {
	testCases := []struct {
		name             string
		files            []string
		directories      []string
		expectedPackages []string
		expectedError    error
	}{
		{
			name:             "sorted_marked_directories",
			files:            []string{"widgets_cli/__init__.py", "widgets/__init__.py", "setup.cfg"},
			expectedPackages: []string{"widgets", "widgets_cli"},
		},
		{
			name:             "excluded_directory_any_case",
			files:            []string{"ZDevelop/__init__.py", "widgets/__init__.py"},
			expectedPackages: []string{"widgets"},
		},
		{
			name:             "hidden_directories_skipped",
			files:            []string{".cache/__init__.py", "widgets/__init__.py"},
			expectedPackages: []string{"widgets"},
		},
		{
			name:             "marker_must_be_file",
			directories:      []string{"widgets/__init__.py"},
			files:            []string{"widgets_cli/__init__.py"},
			expectedPackages: []string{"widgets_cli"},
		},
		{
			name:          "no_packages",
			files:         []string{"zdevelop/__init__.py", "scripts/run.py"},
			expectedError: librename.ErrNoPackagesFound,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			for _, relativePath := range testCase.files {
				require.NoError(testInstance, afero.WriteFile(fileSystem, filepath.Join(packagesRootConstant, relativePath), nil, 0o644))
			}
			for _, relativePath := range testCase.directories {
				require.NoError(testInstance, fileSystem.MkdirAll(filepath.Join(packagesRootConstant, relativePath), 0o755))
			}

			packageNames, discoveryError := librename.DiscoverPackages(fileSystem, packagesRootConstant, librename.DefaultConfiguration())
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, discoveryError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, discoveryError)
			require.Equal(testInstance, testCase.expectedPackages, packageNames)
		})
	}
}

func TestPlanPackageRenamesDetectsCollisions(testInstance *testing.T) {
	testCases := []struct {
		name             string
		existing         []string
		packageNames     []string
		expectCollision  bool
		expectedTargets  []string
		collidingPackage string
	}{
		{
			name:            "distinct_targets",
			packageNames:    []string{"widgets", "widgets_cli"},
			expectedTargets: []string{"gadgets", "gadgets_cli"},
		},
		{
			name:             "unrelated_package_claims_library_name",
			packageNames:     []string{"toolshed", "widgets"},
			expectCollision:  true,
			collidingPackage: "widgets",
		},
		{
			name:             "target_present_on_disk",
			existing:         []string{"gadgets_cli"},
			packageNames:     []string{"widgets", "widgets_cli"},
			expectCollision:  true,
			collidingPackage: "widgets_cli",
		},
		{
			name:            "already_renamed_package",
			existing:        []string{"gadgets"},
			packageNames:    []string{"gadgets"},
			expectedTargets: []string{"gadgets"},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			for _, directory := range append(append([]string{}, testCase.existing...), testCase.packageNames...) {
				require.NoError(testInstance, fileSystem.MkdirAll(filepath.Join(packagesRootConstant, directory), 0o755))
			}

			renames, planError := librename.PlanPackageRenames(fileSystem, packagesRootConstant, "widgets", "gadgets", testCase.packageNames)
			if testCase.expectCollision {
				var collisionError librename.PackageRenameCollisionError
				require.ErrorAs(testInstance, planError, &collisionError)
				require.Equal(testInstance, testCase.collidingPackage, collisionError.SourceName)
				for _, directory := range testCase.packageNames {
					requirePathExists(testInstance, fileSystem, filepath.Join(packagesRootConstant, directory), true)
				}
				return
			}
			require.NoError(testInstance, planError)

			targetNames := make([]string, 0, len(renames))
			for _, packageRename := range renames {
				targetNames = append(targetNames, packageRename.TargetName)
			}
			require.Equal(testInstance, testCase.expectedTargets, targetNames)
		})
	}
}

func TestApplyPackageRenamesHandlesCaseOnlyRenames(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, filepath.Join(packagesRootConstant, "widgets", "__init__.py"), []byte("VALUE = 1\n"), 0o644))

	renames, planError := librename.PlanPackageRenames(fileSystem, packagesRootConstant, "widgets", "Widgets", []string{"widgets"})
	require.NoError(testInstance, planError)
	require.NoError(testInstance, librename.ApplyPackageRenames(fileSystem, renames))

	content, readError := afero.ReadFile(fileSystem, filepath.Join(packagesRootConstant, "Widgets", "__init__.py"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "VALUE = 1\n", string(content))
	requirePathExists(testInstance, fileSystem, filepath.Join(packagesRootConstant, "widgets"), false)
}
