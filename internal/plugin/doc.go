// Package plugin provides the extension runtime for twinpane.
//
// Extensions are sandboxed Lua scripts that can contribute commands,
// file-list columns, virtual filesystems, viewers, and archive
// handlers to the file manager, and interact with the host through a
// mediated context bridge.
//
// # Quick Start
//
//	config := plugin.DefaultManagerConfig()
//	config.ExtensionPaths = []string{"/path/to/extensions"}
//
//	bridge, err := api.NewContext(api.ContextConfig{
//	    Panes: myPaneProvider,
//	    UI:    myUIProvider,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mgr, err := plugin.NewManager(config, bridge)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close(context.Background())
//
//	if err := mgr.Sync(context.Background()); err != nil {
//	    log.Printf("sync: %v", err)
//	}
//
// # Extension Layout
//
// Extensions are either directories or loose files under a search
// path:
//
//	~/.config/twinpane/extensions/
//	├── myext/
//	│   ├── extension.yaml    (or extension.json; optional)
//	│   ├── init.lua          (entry point)
//	│   └── util.lua          (private module, require("util"))
//	└── quick.lua             (loose-file extension)
//
// A manifest names the id, version, author, entry script, and the
// capabilities the extension declares. Without one, the directory name
// (or the loose file's basename) becomes the id, and identity comes
// from the script's own `extension` table.
//
// `require` inside an extension resolves from the extension's own
// directory first, so two extensions can ship conflicting copies of a
// module without interfering.
//
// # Script Conventions
//
// The script's top level is the constructor: it declares and does not
// act. Capabilities pair a declaration table with handler functions:
//
//	extension = { id = "sizes", version = "1.0.0", author = "pat" }
//
//	columns = { { id = "human_size", title = "Size" } }
//	function column_value(column, path)
//	    return "4.2M"
//	end
//
//	function on_init()
//	    local tp = require("tp")
//	    tp.log.info("ready")
//	end
//
//	function on_shutdown() end
//
// The tp module (navigation, UI prompts, logging, scoped store, menu
// and shortcut registration, per-extension data dir) is injected just
// before on_init runs; top-level code cannot use it.
//
// # Lifecycle
//
// Each record moves through discovered, loaded (constructor ran),
// enabled (on_init succeeded, capabilities indexed), disabled, and
// unloaded (terminal). A package whose script fails to load never
// becomes a record: the fault is recorded against the package path
// and the package is retried on the next pass. A faulting
// initialization leaves the record
// visible to the management surface with the fault captured, excluded
// from every capability query, and without affecting sibling
// extensions. Disabling always works: shutdown faults are captured
// but never block the transition. QuiesceAll shuts down everything
// enabled before the host exits, continuing past faults.
//
// Every call into extension code crosses a recovery boundary; a panic
// or error inside one extension is contained, logged with the
// extension's id, and never crashes the host.
//
// # Capability Queries
//
// The capability registry answers queries deterministically:
//
//	reg := mgr.Registry()
//	reg.CommandProviders()           // all, in load order
//	reg.FilesystemFor("sftp://h/x")  // longest matching prefix
//	reg.ViewerFor("readme.md")       // highest priority, most specific
//	reg.ArchiveFor("a.tar.gz")       // ".tar.gz" handler beats ".gz"
package plugin
