package setupcfg

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const (
	configMissingMessageConstant         = "project configuration missing"
	configMalformedMessageConstant       = "project configuration malformed"
	keyNotFoundTemplateConstant          = "configuration key %s.%s not found"
	configMissingTemplateConstant        = "%w: %s: %w"
	configMalformedTemplateConstant      = "%w: %s: %w"
	sectionCreationErrorTemplateConstant = "unable to create configuration section %s: %w"
	keyCreationErrorTemplateConstant     = "unable to create configuration key %s.%s: %w"
	temporaryFileErrorTemplateConstant   = "unable to create temporary configuration file in %s: %w"
	temporaryWriteErrorTemplateConstant  = "unable to write temporary configuration file %s: %w"
	replaceErrorTemplateConstant         = "unable to replace configuration file %s: %w"
	temporaryFilePatternConstant         = ".setupcfg-*.tmp"
	sectionHeaderTemplateConstant        = "[%s]\n"
	keyValueTemplateConstant             = "%s = %s\n"
	commentPrefixConstant                = "# "
	lineBreakConstant                    = "\n"
	continuationLineBreakConstant        = "\n\t"
	defaultFilePermissionsConstant       = fs.FileMode(0o644)
)

var (
	// ErrConfigMissing indicates the configuration file does not exist or cannot be read.
	ErrConfigMissing = errors.New(configMissingMessageConstant)
	// ErrConfigMalformed indicates the configuration file could not be parsed.
	ErrConfigMalformed = errors.New(configMalformedMessageConstant)
)

// KeyNotFoundError reports an absent section/key pair.
type KeyNotFoundError struct {
	Section string
	Key     string
}

// Error describes the missing key.
func (keyError KeyNotFoundError) Error() string {
	return fmt.Sprintf(keyNotFoundTemplateConstant, keyError.Section, keyError.Key)
}

// Document is an in-memory setup.cfg.
type Document struct {
	file *ini.File
}

var configparserLoadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
	AllowPythonMultilineValues: true,
	PreserveSurroundedQuote:    true,
	IgnoreContinuation:         true,
	KeyValueDelimiters:         "=:",
}

// Load reads and parses the configuration file at configurationPath.
func Load(fileSystem afero.Fs, configurationPath string) (*Document, error) {
	content, readError := afero.ReadFile(fileSystem, configurationPath)
	if readError != nil {
		return nil, fmt.Errorf(configMissingTemplateConstant, ErrConfigMissing, configurationPath, readError)
	}

	document, parseError := Parse(content)
	if parseError != nil {
		return nil, fmt.Errorf(configMalformedTemplateConstant, ErrConfigMalformed, configurationPath, parseError)
	}
	return document, nil
}

// Parse builds a Document from raw configuration content.
func Parse(content []byte) (*Document, error) {
	file, loadError := ini.LoadSources(configparserLoadOptions, content)
	if loadError != nil {
		return nil, loadError
	}
	normalizeMultilineValues(file)
	return &Document{file: file}, nil
}

// normalizeMultilineValues strips the indentation ini keeps on continuation lines, leaving
// values the way configparser reports them.
func normalizeMultilineValues(file *ini.File) {
	for _, section := range file.Sections() {
		for _, key := range section.Keys() {
			value := key.Value()
			if !strings.Contains(value, lineBreakConstant) {
				continue
			}
			valueLines := strings.Split(value, lineBreakConstant)
			for lineIndex, valueLine := range valueLines {
				valueLines[lineIndex] = strings.TrimSpace(valueLine)
			}
			key.SetValue(strings.TrimRight(strings.Join(valueLines, lineBreakConstant), lineBreakConstant))
		}
	}
}

// Get returns the value stored under section and key.
func (document *Document) Get(sectionName string, keyName string) (string, error) {
	section, sectionError := document.file.GetSection(sectionName)
	if sectionError != nil {
		return "", KeyNotFoundError{Section: sectionName, Key: keyName}
	}
	if !section.HasKey(keyName) {
		return "", KeyNotFoundError{Section: sectionName, Key: keyName}
	}
	return section.Key(keyName).Value(), nil
}

// Set stores value under section and key, creating the section when absent.
func (document *Document) Set(sectionName string, keyName string, value string) error {
	section, sectionError := document.file.GetSection(sectionName)
	if sectionError != nil {
		section, sectionError = document.file.NewSection(sectionName)
		if sectionError != nil {
			return fmt.Errorf(sectionCreationErrorTemplateConstant, sectionName, sectionError)
		}
	}

	if section.HasKey(keyName) {
		section.Key(keyName).SetValue(value)
		return nil
	}

	if _, keyError := section.NewKey(keyName, value); keyError != nil {
		return fmt.Errorf(keyCreationErrorTemplateConstant, sectionName, keyName, keyError)
	}
	return nil
}

// Render serializes the document the way configparser writes it.
func (document *Document) Render() []byte {
	var buffer bytes.Buffer
	for _, section := range document.file.Sections() {
		keys := section.Keys()
		if section.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}

		writeComment(&buffer, section.Comment)
		fmt.Fprintf(&buffer, sectionHeaderTemplateConstant, section.Name())
		for _, key := range keys {
			writeComment(&buffer, key.Comment)
			fmt.Fprintf(&buffer, keyValueTemplateConstant, key.Name(), strings.ReplaceAll(key.Value(), lineBreakConstant, continuationLineBreakConstant))
		}
		buffer.WriteString(lineBreakConstant)
	}
	return buffer.Bytes()
}

// Save writes the document to configurationPath. The content is written to a temporary file
// in the same directory and renamed over the destination, so a failed save leaves the
// existing file untouched.
func (document *Document) Save(fileSystem afero.Fs, configurationPath string) error {
	permissions := defaultFilePermissionsConstant
	if existingInfo, statError := fileSystem.Stat(configurationPath); statError == nil {
		permissions = existingInfo.Mode().Perm()
	}

	directory := filepath.Dir(configurationPath)
	temporaryFile, createError := afero.TempFile(fileSystem, directory, temporaryFilePatternConstant)
	if createError != nil {
		return fmt.Errorf(temporaryFileErrorTemplateConstant, directory, createError)
	}
	temporaryPath := temporaryFile.Name()

	_, writeError := temporaryFile.Write(document.Render())
	closeError := temporaryFile.Close()
	if joinedError := errors.Join(writeError, closeError); joinedError != nil {
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(temporaryWriteErrorTemplateConstant, temporaryPath, joinedError)
	}

	if chmodError := fileSystem.Chmod(temporaryPath, permissions); chmodError != nil {
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(temporaryWriteErrorTemplateConstant, temporaryPath, chmodError)
	}

	if renameError := fileSystem.Rename(temporaryPath, configurationPath); renameError != nil {
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(replaceErrorTemplateConstant, configurationPath, renameError)
	}
	return nil
}

func writeComment(buffer *bytes.Buffer, comment string) {
	if len(comment) == 0 {
		return
	}
	for _, commentLine := range strings.Split(comment, lineBreakConstant) {
		trimmedLine := strings.TrimSpace(commentLine)
		if !strings.HasPrefix(trimmedLine, "#") && !strings.HasPrefix(trimmedLine, ";") {
			trimmedLine = commentPrefixConstant + trimmedLine
		}
		buffer.WriteString(trimmedLine + lineBreakConstant)
	}
}
