package librename

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/pyrename/internal/filesystem"
	"github.com/temirov/pyrename/internal/setupcfg"
)

const (
	metadataSectionConstant       = "metadata"
	metadataNameKeyConstant       = "name"
	coverageRunSectionConstant    = "coverage:run"
	coverageRunSourceKeyConstant  = "source"
	coverageHTMLSectionConstant   = "coverage:html"
	coverageHTMLTitleKeyConstant  = "title"
	buildSphinxSectionConstant    = "build_sphinx"
	buildSphinxProjectKeyConstant = "project"
	coverageTitleTemplateConstant = "coverage report for %s"
	libraryNameTokenConstant      = "{lib-name-goes-here}"
	buildMetadataSuffixConstant   = ".egg-info"
	documentationDirectoryMode    = fs.FileMode(0o755)
)

type configurationUpdate struct {
	section string
	key     string
	value   string
}

// projectConfigurationUpdates lists the setup.cfg values that carry the library name.
func projectConfigurationUpdates(targetName string) []configurationUpdate {
	return []configurationUpdate{
		{section: metadataSectionConstant, key: metadataNameKeyConstant, value: targetName},
		{section: coverageRunSectionConstant, key: coverageRunSourceKeyConstant, value: targetName},
		{section: coverageHTMLSectionConstant, key: coverageHTMLTitleKeyConstant, value: fmt.Sprintf(coverageTitleTemplateConstant, targetName)},
		{section: buildSphinxSectionConstant, key: buildSphinxProjectKeyConstant, value: targetName},
	}
}

// ReadLibraryName returns metadata.name from the setup.cfg beneath libraryRoot.
func ReadLibraryName(fileSystem afero.Fs, libraryRoot string, configuration Configuration) (string, error) {
	document, loadError := setupcfg.Load(fileSystem, filepath.Join(libraryRoot, configuration.ProjectConfigurationFile))
	if loadError != nil {
		return "", loadError
	}
	return readLibraryName(document)
}

func readLibraryName(document *setupcfg.Document) (string, error) {
	libraryName, getError := document.Get(metadataSectionConstant, metadataNameKeyConstant)
	if getError != nil {
		return "", getError
	}

	trimmedName := strings.TrimSpace(libraryName)
	if len(trimmedName) == 0 {
		return "", setupcfg.KeyNotFoundError{Section: metadataSectionConstant, Key: metadataNameKeyConstant}
	}
	if !isSingleDirectoryName(trimmedName) {
		return "", InvalidLibraryNameError{LibraryName: trimmedName}
	}
	return trimmedName, nil
}

func (service *Service) updateProjectConfiguration(renameContext *RenameContext, configuration Configuration, result *Result) error {
	configurationPath := filepath.Join(renameContext.TargetPath, configuration.ProjectConfigurationFile)
	document, loadError := setupcfg.Load(service.fileSystem, configurationPath)
	if loadError != nil {
		return loadError
	}

	originalName, nameError := readLibraryName(document)
	if nameError != nil {
		return nameError
	}

	for _, update := range projectConfigurationUpdates(renameContext.TargetName) {
		if setError := document.Set(update.section, update.key, update.value); setError != nil {
			return setError
		}
	}

	if saveError := document.Save(service.fileSystem, configurationPath); saveError != nil {
		return saveError
	}

	renameContext.OriginalName = originalName
	result.OriginalName = originalName
	return nil
}

func (service *Service) rewriteDocumentationConfiguration(renameContext *RenameContext, configuration Configuration, _ *Result) error {
	templatePath := filepath.Join(renameContext.TargetPath, configuration.DocumentationTemplate)
	templateInfo, statError := service.fileSystem.Stat(templatePath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return TemplateMissingError{Path: templatePath, Cause: statError}
		}
		return FilesystemError{Operation: filesystemOperationStatConstant, Path: templatePath, Cause: statError}
	}

	templateContent, readError := afero.ReadFile(service.fileSystem, templatePath)
	if readError != nil {
		return FilesystemError{Operation: filesystemOperationReadConstant, Path: templatePath, Cause: readError}
	}

	outputPath := filepath.Join(renameContext.TargetPath, configuration.DocumentationOutput)
	if createError := service.fileSystem.MkdirAll(filepath.Dir(outputPath), documentationDirectoryMode); createError != nil {
		return FilesystemError{Operation: filesystemOperationCreateConstant, Path: filepath.Dir(outputPath), Cause: createError}
	}

	renderedContent := strings.ReplaceAll(string(templateContent), libraryNameTokenConstant, renameContext.TargetName)
	if writeError := afero.WriteFile(service.fileSystem, outputPath, []byte(renderedContent), templateInfo.Mode().Perm()); writeError != nil {
		return FilesystemError{Operation: filesystemOperationWriteConstant, Path: outputPath, Cause: writeError}
	}
	return nil
}

func (service *Service) discardBuildMetadata(renameContext *RenameContext, _ Configuration, _ *Result) error {
	buildMetadataPath := filepath.Join(renameContext.TargetPath, renameContext.OriginalName+buildMetadataSuffixConstant)
	if removeError := filesystem.RemoveTree(service.fileSystem, buildMetadataPath); removeError != nil {
		return FilesystemError{Operation: filesystemOperationRemoveConstant, Path: buildMetadataPath, Cause: removeError}
	}
	return nil
}

func (service *Service) renamePackages(renameContext *RenameContext, configuration Configuration, result *Result) error {
	packageNames, discoveryError := DiscoverPackages(service.fileSystem, renameContext.TargetPath, configuration)
	if discoveryError != nil {
		return discoveryError
	}

	renames, planError := PlanPackageRenames(service.fileSystem, renameContext.TargetPath, renameContext.OriginalName, renameContext.TargetName, packageNames)
	if planError != nil {
		var collisionError PackageRenameCollisionError
		if errors.As(planError, &collisionError) {
			service.printfError(packageCollisionDiagnosticTemplate, collisionError.TargetName)
		}
		return planError
	}

	if applyError := ApplyPackageRenames(service.fileSystem, renames); applyError != nil {
		return applyError
	}

	result.PackageRenames = renames
	service.logPackageRenames(renames)
	return nil
}
