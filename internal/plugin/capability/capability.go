// Package capability defines the contracts an extension may satisfy and
// the registry that indexes live instances by contract.
package capability

import (
	"context"
	"time"

	"github.com/twinpane/twinpane/internal/plugin/api"
)

// Kind identifies one capability contract.
type Kind int

const (
	KindCommand Kind = iota
	KindColumn
	KindFilesystem
	KindViewer
	KindArchive
)

// Kinds lists every contract in classification order.
var Kinds = []Kind{KindCommand, KindColumn, KindFilesystem, KindViewer, KindArchive}

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindColumn:
		return "column"
	case KindFilesystem:
		return "filesystem"
	case KindViewer:
		return "viewer"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Extension is the base contract every extension satisfies: identity
// plus the lifecycle entry points.
type Extension interface {
	// ID returns the unique extension identifier.
	ID() string

	// Version returns the extension version string.
	Version() string

	// Author returns the extension author, possibly empty.
	Author() string

	// Init runs the extension's initialization entry point. Called at
	// most once per load, with the extension's mediated bridge.
	Init(b *api.Bridge) error

	// Shutdown runs the extension's shutdown entry point.
	Shutdown() error
}

// Declarer is an optional refinement: an extension that can report
// which contracts it actually declares. Without it, satisfying a
// contract interface alone is enough to be indexed under it.
type Declarer interface {
	Declares(k Kind) bool
}

// Command is one named action an extension exposes.
type Command struct {
	ID          string
	Title       string
	Description string
}

// CommandProvider exposes named actions with an execution entry point.
type CommandProvider interface {
	Extension

	// Commands lists the actions this provider exposes.
	Commands() []Command

	// ExecuteCommand runs the action with the given id.
	ExecuteCommand(ctx context.Context, commandID string, args map[string]any) error
}

// Column is one named data column an extension contributes.
type Column struct {
	ID    string
	Title string
}

// ColumnProvider exposes data columns with a per-path value getter.
type ColumnProvider interface {
	Extension

	// Columns lists the columns this provider contributes.
	Columns() []Column

	// ColumnValue computes the value of one column for one path.
	ColumnValue(ctx context.Context, columnID, path string) (string, error)
}

// FileInfo describes one entry returned by a filesystem provider.
type FileInfo struct {
	Name    string
	Size    int64
	Dir     bool
	ModTime time.Time
}

// FilesystemProvider handles a URI-style prefix and offers file
// operations beneath it.
type FilesystemProvider interface {
	Extension

	// Prefix returns the URI prefix this provider handles, e.g. "sftp://".
	Prefix() string

	List(ctx context.Context, path string) ([]FileInfo, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Copy(ctx context.Context, src, dst string) error
	Move(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, path string) error
	Mkdir(ctx context.Context, path string) error
}

// ViewerSpec declares what a viewer can open and how strongly it
// claims those inputs.
type ViewerSpec struct {
	// Extensions lists file extensions including the dot, e.g. ".md".
	Extensions []string

	// MediaTypes lists media types, e.g. "text/markdown".
	MediaTypes []string

	// Priority orders viewers claiming the same input; higher wins.
	Priority int
}

// Surface is the materialized result of opening a path in a viewer.
type Surface struct {
	Title   string
	Content string
}

// Viewer can materialize a viewing surface for supported paths.
type Viewer interface {
	Extension

	// ViewerSpec declares the inputs this viewer supports.
	ViewerSpec() ViewerSpec

	// OpenView materializes a surface for the path.
	OpenView(ctx context.Context, path string) (*Surface, error)
}

// ArchiveHandler can list, extract, and create archives for its
// declared extensions.
type ArchiveHandler interface {
	Extension

	// ArchiveExtensions lists archive extensions including the dot,
	// e.g. ".tar.gz".
	ArchiveExtensions() []string

	// ListArchive returns the entry paths inside the archive.
	ListArchive(ctx context.Context, archivePath string) ([]string, error)

	// Extract unpacks the archive into destDir.
	Extract(ctx context.Context, archivePath, destDir string) error

	// Create builds an archive at archivePath from the source paths.
	Create(ctx context.Context, archivePath string, sources []string) error
}

// Classify reports the contracts the instance satisfies. Satisfaction
// is structural (interface assertion); if the instance is a Declarer,
// a contract also has to be declared to count.
func Classify(ext Extension) []Kind {
	decl, hasDecl := ext.(Declarer)
	declared := func(k Kind) bool {
		return !hasDecl || decl.Declares(k)
	}

	var kinds []Kind
	for _, k := range Kinds {
		var ok bool
		switch k {
		case KindCommand:
			_, ok = ext.(CommandProvider)
		case KindColumn:
			_, ok = ext.(ColumnProvider)
		case KindFilesystem:
			_, ok = ext.(FilesystemProvider)
		case KindViewer:
			_, ok = ext.(Viewer)
		case KindArchive:
			_, ok = ext.(ArchiveHandler)
		}
		if ok && declared(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
