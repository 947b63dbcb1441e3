package hooks

// Template returns a starter script for the named hook.
func Template(operation string) (string, bool) {
	switch operation {
	case "pre_build":
		return `// pre_build hook
// Runs after dependencies are installed and before the build script.
// The "context" module provides package_name, package_dir, install_root and operation.
// Assigning a non-empty string to err fails the install.
ctx := import("context")
os := import("os")
err := ""

// Example: refuse to build without a C compiler
/*
if is_error(os.exec_look_path("cc")) {
    err = "a C compiler is required to build " + ctx.package_name
}
*/
`, true

	case "post_install":
		return `// post_install hook
// Runs after the package's files were relocated into the install root.
// The "context" module provides package_name, package_dir, install_root and operation.
ctx := import("context")
fmt := import("fmt")

fmt.println("installed ", ctx.package_name, " into ", ctx.install_root)
`, true

	default:
		return "", false
	}
}
