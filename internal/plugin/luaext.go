package plugin

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/twinpane/twinpane/internal/plugin/api"
	"github.com/twinpane/twinpane/internal/plugin/capability"
	plua "github.com/twinpane/twinpane/internal/plugin/lua"
)

// Script conventions: the main script's top level is the constructor.
// It declares identity in an `extension` table and capabilities via
// declaration tables plus handler functions:
//
//	commands + on_command(id, args)
//	columns + column_value(column, path)
//	filesystem + fs_list/fs_read/fs_write/fs_copy/fs_move/fs_delete/fs_mkdir
//	viewer + view_open(path)
//	archive + archive_list/archive_extract/archive_create
//
// Lifecycle entry points on_init() and on_shutdown() are optional. The
// tp module is injected just before on_init runs.

// luaExtension adapts one sandboxed Lua script to the capability
// contracts. A script only satisfies a contract it both declares and
// implements the handler for.
type luaExtension struct {
	desc *Descriptor
	st   *plua.State
	vb   *plua.Bridge

	declared map[capability.Kind]bool

	commands    []capability.Command
	columns     []capability.Column
	fsPrefix    string
	viewerSpec  capability.ViewerSpec
	archiveExts []string

	hasInit     bool
	hasShutdown bool
}

var (
	_ capability.CommandProvider    = (*luaExtension)(nil)
	_ capability.ColumnProvider     = (*luaExtension)(nil)
	_ capability.FilesystemProvider = (*luaExtension)(nil)
	_ capability.Viewer             = (*luaExtension)(nil)
	_ capability.ArchiveHandler     = (*luaExtension)(nil)
	_ capability.Declarer           = (*luaExtension)(nil)
)

// newLuaExtension reads the script's declarations. The main script
// must already have run in the state.
func newLuaExtension(desc *Descriptor, st *plua.State) *luaExtension {
	e := &luaExtension{
		desc:     desc,
		st:       st,
		vb:       plua.NewBridge(st.LuaState()),
		declared: make(map[capability.Kind]bool),
	}

	// The manifest is authoritative when one exists; only a
	// manifest-less package takes identity from the script.
	if t := e.globalTable("extension"); t != nil && desc.Synthetic {
		desc.AdoptIdentity(
			plua.TableString(t, "id"),
			plua.TableString(t, "version"),
			plua.TableString(t, "author"),
		)
		if name := plua.TableString(t, "name"); name != "" {
			desc.Name = name
		}
		if description := plua.TableString(t, "description"); description != "" {
			desc.Description = description
		}
	}

	e.readCommands()
	e.readColumns()
	e.readFilesystem()
	e.readViewer()
	e.readArchive()

	e.hasInit = st.HasFunction("on_init")
	e.hasShutdown = st.HasFunction("on_shutdown")
	return e
}

func (e *luaExtension) globalTable(name string) *lua.LTable {
	if t, ok := e.st.GetGlobal(name).(*lua.LTable); ok {
		return t
	}
	return nil
}

func (e *luaExtension) readCommands() {
	t := e.globalTable("commands")
	if t == nil || !e.st.HasFunction("on_command") {
		return
	}
	t.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		id := plua.TableString(entry, "id")
		if id == "" {
			return
		}
		e.commands = append(e.commands, capability.Command{
			ID:          id,
			Title:       plua.TableString(entry, "title"),
			Description: plua.TableString(entry, "description"),
		})
	})
	if len(e.commands) > 0 {
		e.declared[capability.KindCommand] = true
	}
}

func (e *luaExtension) readColumns() {
	t := e.globalTable("columns")
	if t == nil || !e.st.HasFunction("column_value") {
		return
	}
	t.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		id := plua.TableString(entry, "id")
		if id == "" {
			return
		}
		e.columns = append(e.columns, capability.Column{
			ID:    id,
			Title: plua.TableString(entry, "title"),
		})
	})
	if len(e.columns) > 0 {
		e.declared[capability.KindColumn] = true
	}
}

func (e *luaExtension) readFilesystem() {
	t := e.globalTable("filesystem")
	if t == nil || !e.st.HasFunction("fs_list") {
		return
	}
	e.fsPrefix = plua.TableString(t, "prefix")
	if e.fsPrefix != "" {
		e.declared[capability.KindFilesystem] = true
	}
}

func (e *luaExtension) readViewer() {
	t := e.globalTable("viewer")
	if t == nil || !e.st.HasFunction("view_open") {
		return
	}
	e.viewerSpec = capability.ViewerSpec{
		Extensions: plua.TableStrings(t, "extensions"),
		MediaTypes: plua.TableStrings(t, "media_types"),
		Priority:   plua.TableInt(t, "priority", 0),
	}
	if len(e.viewerSpec.Extensions) > 0 || len(e.viewerSpec.MediaTypes) > 0 {
		e.declared[capability.KindViewer] = true
	}
}

func (e *luaExtension) readArchive() {
	t := e.globalTable("archive")
	if t == nil || !e.st.HasFunction("archive_list") {
		return
	}
	e.archiveExts = plua.TableStrings(t, "extensions")
	if len(e.archiveExts) > 0 {
		e.declared[capability.KindArchive] = true
	}
}

// Extension contract.

func (e *luaExtension) ID() string      { return e.desc.ID }
func (e *luaExtension) Version() string { return e.desc.Version }
func (e *luaExtension) Author() string  { return e.desc.Author }

// Init injects the bridge modules and runs the script's on_init.
func (e *luaExtension) Init(b *api.Bridge) error {
	reg, err := api.DefaultRegistry(b, e.st)
	if err != nil {
		return err
	}
	if err := reg.InjectAll(e.st); err != nil {
		return err
	}

	if !e.hasInit {
		return nil
	}
	_, err = e.st.Call("on_init")
	return err
}

func (e *luaExtension) Shutdown() error {
	if !e.hasShutdown {
		return nil
	}
	_, err := e.st.Call("on_shutdown")
	return err
}

// Declares restricts structural contract satisfaction to what the
// script actually declared.
func (e *luaExtension) Declares(k capability.Kind) bool {
	return e.declared[k]
}

// CommandProvider contract.

func (e *luaExtension) Commands() []capability.Command {
	return append([]capability.Command(nil), e.commands...)
}

func (e *luaExtension) ExecuteCommand(ctx context.Context, commandID string, args map[string]any) error {
	luaArgs := e.vb.ToLuaValue(args)
	_, err := e.st.Call("on_command", lua.LString(commandID), luaArgs)
	return err
}

// ColumnProvider contract.

func (e *luaExtension) Columns() []capability.Column {
	return append([]capability.Column(nil), e.columns...)
}

func (e *luaExtension) ColumnValue(ctx context.Context, columnID, path string) (string, error) {
	results, err := e.st.Call("column_value", lua.LString(columnID), lua.LString(path))
	if err != nil {
		return "", err
	}
	return firstString(results), nil
}

// FilesystemProvider contract.

func (e *luaExtension) Prefix() string { return e.fsPrefix }

func (e *luaExtension) List(ctx context.Context, path string) ([]capability.FileInfo, error) {
	results, err := e.st.Call("fs_list", lua.LString(path))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	t, ok := results[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("fs_list: expected a table, got %s", results[0].Type())
	}

	var infos []capability.FileInfo
	t.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		info := capability.FileInfo{
			Name: plua.TableString(entry, "name"),
			Size: int64(plua.TableInt(entry, "size", 0)),
			Dir:  plua.TableBool(entry, "dir"),
		}
		if mtime := plua.TableInt(entry, "mtime", 0); mtime > 0 {
			info.ModTime = time.Unix(int64(mtime), 0)
		}
		infos = append(infos, info)
	})
	return infos, nil
}

func (e *luaExtension) Read(ctx context.Context, path string) ([]byte, error) {
	results, err := e.st.Call("fs_read", lua.LString(path))
	if err != nil {
		return nil, err
	}
	return []byte(firstString(results)), nil
}

func (e *luaExtension) Write(ctx context.Context, path string, data []byte) error {
	_, err := e.st.Call("fs_write", lua.LString(path), lua.LString(data))
	return err
}

func (e *luaExtension) Copy(ctx context.Context, src, dst string) error {
	_, err := e.st.Call("fs_copy", lua.LString(src), lua.LString(dst))
	return err
}

func (e *luaExtension) Move(ctx context.Context, src, dst string) error {
	_, err := e.st.Call("fs_move", lua.LString(src), lua.LString(dst))
	return err
}

func (e *luaExtension) Delete(ctx context.Context, path string) error {
	_, err := e.st.Call("fs_delete", lua.LString(path))
	return err
}

func (e *luaExtension) Mkdir(ctx context.Context, path string) error {
	_, err := e.st.Call("fs_mkdir", lua.LString(path))
	return err
}

// Viewer contract.

func (e *luaExtension) ViewerSpec() capability.ViewerSpec {
	spec := e.viewerSpec
	spec.Extensions = append([]string(nil), e.viewerSpec.Extensions...)
	spec.MediaTypes = append([]string(nil), e.viewerSpec.MediaTypes...)
	return spec
}

func (e *luaExtension) OpenView(ctx context.Context, path string) (*capability.Surface, error) {
	results, err := e.st.Call("view_open", lua.LString(path))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == lua.LNil {
		return nil, fmt.Errorf("view_open: no surface returned for %s", path)
	}
	t, ok := results[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("view_open: expected a table, got %s", results[0].Type())
	}
	return &capability.Surface{
		Title:   plua.TableString(t, "title"),
		Content: plua.TableString(t, "content"),
	}, nil
}

// ArchiveHandler contract.

func (e *luaExtension) ArchiveExtensions() []string {
	return append([]string(nil), e.archiveExts...)
}

func (e *luaExtension) ListArchive(ctx context.Context, archivePath string) ([]string, error) {
	results, err := e.st.Call("archive_list", lua.LString(archivePath))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	t, ok := results[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("archive_list: expected a table, got %s", results[0].Type())
	}

	var names []string
	t.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			names = append(names, string(s))
		}
	})
	return names, nil
}

func (e *luaExtension) Extract(ctx context.Context, archivePath, destDir string) error {
	_, err := e.st.Call("archive_extract", lua.LString(archivePath), lua.LString(destDir))
	return err
}

func (e *luaExtension) Create(ctx context.Context, archivePath string, sources []string) error {
	_, err := e.st.Call("archive_create", lua.LString(archivePath), e.vb.ToLuaValue(sources))
	return err
}

func firstString(results []lua.LValue) string {
	if len(results) == 0 || results[0] == lua.LNil {
		return ""
	}
	return results[0].String()
}
