package buildinfo

import "runtime/debug"

// Set with -ldflags "-X linebalance/internal/buildinfo.Version=..."
var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

// Info reports the linker-set values, falling back to the VCS stamp the Go
// toolchain embeds.
func Info() map[string]string {
    out := map[string]string{
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
    bi, ok := debug.ReadBuildInfo()
    if !ok { return out }
    out["goVersion"] = bi.GoVersion
    for _, s := range bi.Settings {
        switch s.Key {
        case "vcs.revision":
            if out["commit"] == "" { out["commit"] = s.Value }
        case "vcs.time":
            if out["builtAt"] == "" { out["builtAt"] = s.Value }
        case "vcs.modified":
            out["dirty"] = s.Value
        }
    }
    return out
}
