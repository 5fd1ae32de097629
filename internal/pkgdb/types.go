package pkgdb

// Package represents one installed software unit.
type Package struct {
	Name    string
	Version string
}

// ScriptType identifies when a package lifecycle script runs.
type ScriptType string

const (
	ScriptPreInstall  ScriptType = "pre-install"
	ScriptPostInstall ScriptType = "post-install"
	ScriptPreRemove   ScriptType = "pre-remove"
	ScriptPostRemove  ScriptType = "post-remove"
)

// Script is a lifecycle script owned by a package. A package may carry
// several scripts of the same type.
type Script struct {
	Package string
	Type    ScriptType
	Body    string
}

// FileKind classifies a filesystem entry owned by a package.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindFile
	KindDir
	KindSymlink
	KindCharDevice
	KindBlockDevice
	KindPipe
	KindSocket
)

// kindNames holds the stable on-disk encoding of each kind. The strings
// match the values written by earlier releases so an existing package
// database stays readable.
var kindNames = map[FileKind]string{
	KindUnknown:     "unknown",
	KindFile:        "file",
	KindDir:         "dir",
	KindSymlink:     "slink",
	KindCharDevice:  "character special",
	KindBlockDevice: "block special",
	KindPipe:        "pipe",
	KindSocket:      "socket",
}

func (k FileKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// KindFromString maps a stored kind string back to its FileKind. Strings
// that no release ever wrote map to KindUnknown rather than failing.
func KindFromString(s string) FileKind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// NoChecksum is the stored sentinel for a file entry that carries no
// content digest (devices, pipes, sockets, and unchecksummed files).
const NoChecksum = "-"

// FileEntry records one filesystem entry owned by a package. Path is the
// global primary key: no two packages may claim the same path.
type FileEntry struct {
	Path     string
	Package  string
	Kind     FileKind
	Checksum string
	UID      int
	GID      int
	Flags    int
	Mode     int
}

// HasChecksum reports whether the entry carries a comparable content
// digest.
func (e *FileEntry) HasChecksum() bool {
	return e.Checksum != "" && e.Checksum != NoChecksum
}
