package bcc

// Artifact is a fully validated, loaded cache artifact.
//
// An Artifact is only ever observed complete: OpenCache constructs it
// after every validation step has passed and discards all partial
// state otherwise. It owns the string pool and the loaded context
// block; Close releases the context.
//
// Accessors return internal slices for efficiency; callers must not
// modify them.
type Artifact struct {
	pool        *stringPool
	exportVars  []string
	exportFuncs []string
	pragmas     []Pragma
	funcs       map[string]FuncInfo
	funcNames   []string

	context     []byte
	contextAddr uint64
	loader      ContextLoader
}

// LookupFunction returns the cached address and size of a compiled
// function, for resolving entry points before execution.
//
// When the function table contains duplicate names, the first
// occurrence wins; later duplicates are ignored.
func (a *Artifact) LookupFunction(name string) (FuncInfo, bool) {
	info, ok := a.funcs[name]
	return info, ok
}

// Functions lists the function table in file order, first occurrence
// of each duplicated name only.
func (a *Artifact) Functions() []FuncRecord {
	records := make([]FuncRecord, 0, len(a.funcNames))
	for _, name := range a.funcNames {
		info := a.funcs[name]
		records = append(records, FuncRecord{Name: name, Addr: info.Addr, Size: info.Size})
	}
	return records
}

// Pragmas returns the cached pragma list in file order.
func (a *Artifact) Pragmas() []Pragma {
	return a.pragmas
}

// ExportVars returns the names of exported variables.
func (a *Artifact) ExportVars() []string {
	return a.exportVars
}

// ExportFuncs returns the names of exported functions.
func (a *Artifact) ExportFuncs() []string {
	return a.exportFuncs
}

// Context returns the loaded context block.
func (a *Artifact) Context() []byte {
	return a.context
}

// ContextAddr returns the virtual address the context was cached for.
func (a *Artifact) ContextAddr() uint64 {
	return a.contextAddr
}

// StringCount returns the number of entries in the string pool. The
// pool itself stays private; other sections have already resolved
// their references through it.
func (a *Artifact) StringCount() int {
	return a.pool.count()
}

// Close releases the loaded context block. The Artifact must not be
// used afterwards. Close is idempotent.
func (a *Artifact) Close() error {
	if a.context == nil {
		return nil
	}
	block := a.context
	a.context = nil
	return a.loader.Release(block)
}
