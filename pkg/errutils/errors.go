// Package errutils provides the error taxonomy of the yapm package manager.
// It defines sentinel errors for every failure point of the install and removal
// pipeline together with small wrapping helpers, so callers can add context while
// keeping errors.Is checks intact.
package errutils

import (
	"fmt"
)

// Pipeline errors. Each step of an install or removal fails with exactly one of these,
// wrapped with the package and path it concerns.
var (
	// ErrUserAborted is returned when an interactive confirmation is declined.
	ErrUserAborted = fmt.Errorf("aborted by user")

	// ErrFetchFailed is returned when a remote archive cannot be retrieved.
	ErrFetchFailed = fmt.Errorf("fetch failed")

	// ErrWriteFailed is returned when a fetched file cannot be written locally.
	ErrWriteFailed = fmt.Errorf("write failed")

	// ErrArchiveOpenFailed is returned when an archive cannot be opened or is not a gzip-compressed tar.
	ErrArchiveOpenFailed = fmt.Errorf("failed to open archive")

	// ErrArchiveEntryFailed is returned when a single archive entry cannot be written.
	ErrArchiveEntryFailed = fmt.Errorf("failed to extract archive entry")

	// ErrManifestMissing is returned when a package carries no config.yaml.
	ErrManifestMissing = fmt.Errorf("package manifest not found")

	// ErrManifestInvalid is returned when config.yaml cannot be parsed or a field has the wrong shape.
	ErrManifestInvalid = fmt.Errorf("invalid package manifest")

	// ErrDependencyInstallFailed is returned when a recursive dependency install fails.
	ErrDependencyInstallFailed = fmt.Errorf("dependency installation failed")

	// ErrDependencyCycle is returned when the dependency graph of an install contains a cycle.
	ErrDependencyCycle = fmt.Errorf("dependency cycle detected")

	// ErrBuildFailed is returned when a build script cannot be run, or exits nonzero in strict mode.
	ErrBuildFailed = fmt.Errorf("build failed")

	// ErrArtifactMissing is returned when a declared build output is absent (package wasn't built correctly).
	ErrArtifactMissing = fmt.Errorf("declared artifact missing from build folder")

	// ErrRelocateFailed is returned when a present artifact cannot be moved into the install root.
	ErrRelocateFailed = fmt.Errorf("failed to relocate artifact")

	// ErrRegistryCorrupt is returned when the registry document is unreadable or unparsable.
	ErrRegistryCorrupt = fmt.Errorf("registry is corrupt")

	// ErrPackageNotFound is returned when the registry has no entry for a package.
	ErrPackageNotFound = fmt.Errorf("package not found")

	// ErrHookFailed is returned when a manifest hook script fails.
	ErrHookFailed = fmt.Errorf("hook failed")

	// ErrIncompatibleVersion is returned when a package requires a different yapm version.
	ErrIncompatibleVersion = fmt.Errorf("incompatible yapm version")

	// ErrMirrorsMissing is returned when the mirror list has not been installed yet.
	ErrMirrorsMissing = fmt.Errorf("mirror list not found (run 'yapm mirrors' first)")

	// ErrMirrorsCorrupt is returned when the mirror list cannot be parsed.
	ErrMirrorsCorrupt = fmt.Errorf("mirror list is corrupt")

	// ErrCredentialsMissing is returned when configured repository credentials cannot be resolved.
	ErrCredentialsMissing = fmt.Errorf("repository credentials missing")
)

// Config errors are related to configuration file operations and validation.
var (
	ErrEmptyConfigPath = fmt.Errorf(
		"config file path cannot be empty") // When config file path is empty

	ErrInvalidConfigPath = fmt.Errorf(
		"invalid config file path") // When provided config file path is invalid

	ErrConfigParse = fmt.Errorf(
		"failed to parse config") // When config file cannot be parsed

	// ErrConfigValidation is returned when configuration values fail validation.
	ErrConfigValidation = fmt.Errorf(
		"invalid configuration") // When config values fail validation

	ErrConfigEncode = fmt.Errorf(
		"failed to encode config") // When config cannot be encoded

	ErrConfigDirectory = fmt.Errorf(
		"failed to create config directory") // When config dir cannot be created

	ErrConfigFileCreate = fmt.Errorf(
		"failed to create config file") // When config file cannot be created

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// ErrConfigFileRename is returned when renaming the temporary config file fails.
	ErrConfigFileRename = fmt.Errorf("failed to rename temporary config file")

	// ErrInvalidLogLevel is returned when an invalid log level is specified.
	ErrInvalidLogLevel = fmt.Errorf("invalid log level")

	// ErrHTTPTimeoutNegative is returned when HTTP timeout is set to a negative value.
	ErrHTTPTimeoutNegative = fmt.Errorf("http_timeout cannot be negative")

	// ErrRepositoryURLEmpty is returned when no repository base URL is configured.
	ErrRepositoryURLEmpty = fmt.Errorf("repository URL cannot be empty")

	// ErrRepositoryURLInvalid is returned when the repository base URL cannot be parsed.
	ErrRepositoryURLInvalid = fmt.Errorf("invalid repository URL")
)

// Generic errors.
var (
	// ErrInvalidPath is returned when a file or directory path is invalid.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// ErrEmptyPaths is returned when source or destination paths are empty in file operations.
	ErrEmptyPaths = fmt.Errorf("source and destination paths cannot be empty")

	// ErrValidation is returned when an argument fails validation.
	ErrValidation = fmt.Errorf("validation failed")
)

// Wrap wraps an error with additional context.
// This is useful for adding context to errors as they propagate up the call stack.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errutils.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrPackageNotFoundWithName creates an error for a package the registry does not know.
func ErrPackageNotFoundWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrPackageNotFound, name)
}
