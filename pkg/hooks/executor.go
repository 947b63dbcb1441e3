// Package hooks runs the optional Tengo scripts a package manifest declares for points
// of the install pipeline.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/errutils"
)

// HookContext is exposed to scripts as the builtin "context" module.
type HookContext struct {
	PackageName string
	PackageDir  string
	InstallRoot string
	Operation   string // "pre_build" or "post_install"
}

// Executor runs hook scripts.
type Executor struct{}

// NewExecutor creates a hook executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run executes the Tengo script at scriptPath. All Tengo stdlib modules are importable,
// plus a "context" module carrying hc. A script may also fail by assigning a non-empty
// string or an error value to a top-level variable named err.
func (e *Executor) Run(ctx context.Context, scriptPath string, hc HookContext) error {
	source, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("%w: %s: cannot read script %s: %v", errutils.ErrHookFailed, hc.Operation, scriptPath, err)
	}

	logger.Debug("Executing hook script", logger.Fields{
		"hook_path": scriptPath,
		"operation": hc.Operation,
		"package":   hc.PackageName,
	})

	moduleMap := stdlib.GetModuleMap(stdlib.AllModuleNames()...)
	moduleMap.AddBuiltinModule("context", map[string]tengo.Object{
		"package_name": &tengo.String{Value: hc.PackageName},
		"package_dir":  &tengo.String{Value: hc.PackageDir},
		"install_root": &tengo.String{Value: hc.InstallRoot},
		"operation":    &tengo.String{Value: hc.Operation},
	})

	script := tengo.NewScript(source)
	script.SetImports(moduleMap)

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %s: %w", errutils.ErrHookFailed, hc.Operation, scriptPath, err)
	}

	if compiled.IsDefined("err") {
		if scriptErr := scriptError(compiled.Get("err")); scriptErr != nil {
			return fmt.Errorf("%w: %s: %s: %w", errutils.ErrHookFailed, hc.Operation, scriptPath, scriptErr)
		}
	}

	logger.Debug("Hook script executed successfully", logger.Fields{
		"hook_path": scriptPath,
		"operation": hc.Operation,
		"package":   hc.PackageName,
	})
	return nil
}

func scriptError(v *tengo.Variable) error {
	switch val := v.Object().(type) {
	case *tengo.Error:
		return errors.New(val.Value.String())
	case *tengo.String:
		if val.Value != "" {
			return errors.New(val.Value)
		}
	}
	return nil
}
