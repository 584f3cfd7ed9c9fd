// Package version reports the module version wasmos was built from.
package version

import "runtime/debug"

// Default is returned when the binary was not built as a dependency or from a tagged module, for example `go run`
// inside this repository.
const Default = "dev"

const modulePath = "github.com/r00ster91/wasmos"

// GetWasmosVersion returns the version of wasmos recorded in the build info of the running binary.
func GetWasmosVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return versionOf(info)
}

func versionOf(info *debug.BuildInfo) string {
	if info.Main.Path == modulePath && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return Default
}
