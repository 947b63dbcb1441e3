package fsutil

// Modes used for everything yapm writes: the registry, the mirror list, the setup snippet,
// packed archives and the directories holding them. Extracted package files keep the
// modes recorded in their archive.
const (
	FileModeDefault = 0o644 // -rw-r--r--
	DirModeDefault  = 0o755 // drwxr-xr-x
)
