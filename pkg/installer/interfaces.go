//go:generate mockgen -destination=./mocks/installer.go -package=mocks . Fetcher,Extractor,Builder,Relocator,Registry,Prompter,HookRunner

package installer

import (
	"context"

	"github.com/glorpus-work/yapm/pkg/build"
	"github.com/glorpus-work/yapm/pkg/hooks"
)

// Fetcher downloads a file published in the repository into a local directory.
type Fetcher interface {
	Fetch(ctx context.Context, relativeName, destDir string) (string, error)
}

// Extractor unpacks a package archive.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Builder runs a package's build script inside its package root.
type Builder interface {
	Build(ctx context.Context, script, workDir string) (*build.Result, error)
}

// Relocator moves build outputs into the install root.
type Relocator interface {
	Relocate(buildDir string, files []string, installRoot string) ([]string, error)
}

// Registry is the subset of the installed-package registry used by installs and removals.
type Registry interface {
	RecordInstall(name string, files []string) error
	Remove(name string) ([]string, error)
	Lookup(name string) ([]string, error)
}

// Prompter asks the user a question and returns the raw answer.
type Prompter interface {
	Prompt(question string) (string, error)
}

// HookRunner executes manifest hook scripts.
type HookRunner interface {
	Run(ctx context.Context, scriptPath string, hc hooks.HookContext) error
}
