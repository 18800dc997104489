package bcc

import (
	"bytes"
	"fmt"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

// OpenCache validates a cache artifact and loads it.
//
// expected is the dependency set the current invocation was built
// from, sorted by name ascending (see [SortDependencies]); the cache
// is only usable if its recorded dependency table matches exactly.
//
// The checks run in a fixed order — file size, header, machine
// compatibility, section bounds, string pool, dependencies, tables,
// context load, context checksum — and the first failure rejects the
// cache. No partial artifact is ever returned: on error all buffers
// are discarded and a loaded context, if any, is released.
//
// OpenCache is a pure function of its inputs and holds no state
// between calls; concurrent opens of different files are safe.
func OpenCache(src ByteSource, expected []Dependency, opts ...Option) (*Artifact, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	o := &opener{cfg: cfg, src: src, expected: expected}
	art, err := o.run()
	if err != nil {
		o.discard()
		cfg.logger.Error("cache rejected", "error", err)
		return nil, err
	}

	cfg.logger.Debug("cache accepted",
		"functions", len(art.funcs),
		"dependencies", len(expected),
		"context_addr", fmt.Sprintf("%#x", art.contextAddr))
	return art, nil
}

// opener holds the state of one open attempt. Everything it
// accumulates is exclusively owned by the attempt until ownership
// transfers to the returned Artifact.
type opener struct {
	cfg      config
	src      ByteSource
	expected []Dependency

	fileSize int64
	hdr      *layout.Header
	pool     *stringPool
	context  []byte
}

func (o *opener) run() (*Artifact, error) {
	if err := o.checkFileSize(); err != nil {
		return nil, err
	}
	if err := o.readHeader(); err != nil {
		return nil, err
	}
	if err := o.checkHeader(); err != nil {
		return nil, err
	}
	if err := o.checkMachine(); err != nil {
		return nil, err
	}
	if err := o.checkSections(); err != nil {
		return nil, err
	}

	if err := o.readStringPool(); err != nil {
		return nil, err
	}
	if err := o.pool.checkTerminators(); err != nil {
		return nil, err
	}
	if err := o.checkDependencies(); err != nil {
		return nil, err
	}

	exportVars, err := o.readExportList(layout.SecExportVarList)
	if err != nil {
		return nil, err
	}
	exportFuncs, err := o.readExportList(layout.SecExportFuncList)
	if err != nil {
		return nil, err
	}
	pragmas, err := o.readPragmaList()
	if err != nil {
		return nil, err
	}
	funcs, funcNames, err := o.readFuncTable()
	if err != nil {
		return nil, err
	}

	if err := o.loadContext(); err != nil {
		return nil, err
	}
	if err := o.checkContext(); err != nil {
		return nil, err
	}

	art := &Artifact{
		pool:        o.pool,
		exportVars:  exportVars,
		exportFuncs: exportFuncs,
		pragmas:     pragmas,
		funcs:       funcs,
		funcNames:   funcNames,
		context:     o.context,
		contextAddr: o.hdr.ContextAddr,
		loader:      o.cfg.loader,
	}
	o.context = nil // ownership transferred
	return art, nil
}

// discard releases everything the failed attempt acquired. Section
// buffers are garbage collected; only a loaded context needs explicit
// release.
func (o *opener) discard() {
	if o.context != nil {
		_ = o.cfg.loader.Release(o.context)
		o.context = nil
	}
}

func (o *opener) checkFileSize() error {
	o.fileSize = o.src.Size()
	if o.fileSize < int64(layout.HeaderSize) || o.fileSize < int64(o.cfg.contextSize) {
		return fmt.Errorf("cache file of %d bytes is too small to be correct: %w",
			o.fileSize, ErrFormat)
	}
	return nil
}

func (o *opener) readHeader() error {
	buf := make([]byte, layout.HeaderSize)
	n, err := o.src.ReadAt(buf, 0)
	if n < len(buf) {
		return fmt.Errorf("bcc: short header read (%d of %d bytes): %w", n, len(buf), err)
	}

	o.hdr, err = layout.DecodeHeader(buf)
	if err != nil {
		return fmt.Errorf("%s: %w", err, ErrFormat)
	}
	return nil
}

func (o *opener) checkHeader() error {
	if string(o.hdr.Magic[:]) != layout.Magic {
		return fmt.Errorf("bad magic %q: %w", o.hdr.Magic[:], ErrFormat)
	}
	if string(o.hdr.Version[:]) != layout.Version {
		return fmt.Errorf("unsupported cache version %q: %w", o.hdr.Version[:], ErrFormat)
	}
	return nil
}

// checkMachine rejects caches built by a different machine or ABI. No
// byte swapping or width conversion is attempted.
func (o *opener) checkMachine() error {
	if host := layout.HostEndianness(); o.hdr.Endianness != host {
		return fmt.Errorf("cache endianness %q, host %q: %w",
			o.hdr.Endianness, host, ErrCompatibility)
	}

	if o.hdr.SizeofOffT != layout.HostSizeofOffT ||
		o.hdr.SizeofSizeT != layout.HostSizeofSizeT ||
		o.hdr.SizeofPtrT != layout.HostSizeofPtrT {
		return fmt.Errorf("cache integer widths (off_t=%d size_t=%d ptr=%d) disagree with host (%d %d %d): %w",
			o.hdr.SizeofOffT, o.hdr.SizeofSizeT, o.hdr.SizeofPtrT,
			layout.HostSizeofOffT, layout.HostSizeofSizeT, layout.HostSizeofPtrT,
			ErrCompatibility)
	}
	return nil
}

// checkSections verifies every declared section lies inside the file,
// word-aligned, and large enough to hold its record count; the context
// additionally must be page-aligned both in the file and at its target
// address, because it is mapped directly into executable memory.
func (o *opener) checkSections() error {
	fileSize := uint64(o.fileSize)

	for id := layout.SectionID(0); id < layout.NumSections; id++ {
		sec := o.hdr.Sections[id]
		if sec.Offset > fileSize || sec.Size > fileSize-sec.Offset {
			return fmt.Errorf("%s section [%d, +%d] overflows %d-byte file: %w",
				id, sec.Offset, sec.Size, fileSize, ErrFormat)
		}
		if sec.Offset%layout.WordSize != 0 {
			return fmt.Errorf("%s section offset %d is not %d-byte aligned: %w",
				id, sec.Offset, layout.WordSize, ErrFormat)
		}
		if sec.Size < layout.WordSize {
			return fmt.Errorf("%s section size %d is too small to be correct: %w",
				id, sec.Size, ErrFormat)
		}
	}

	ctxOff := o.hdr.ContextOffset
	ctxSize := uint64(o.cfg.contextSize)
	if ctxOff > fileSize || ctxSize > fileSize-ctxOff {
		return fmt.Errorf("context section [%d, +%d] overflows %d-byte file: %w",
			ctxOff, ctxSize, fileSize, ErrFormat)
	}

	page := uint64(o.cfg.pageSize)
	if ctxOff%page != 0 {
		return fmt.Errorf("context offset %d is not aligned to page size %d: %w",
			ctxOff, page, ErrFormat)
	}
	if o.hdr.ContextAddr%page != 0 {
		return fmt.Errorf("context load address %#x is not aligned to page size %d: %w",
			o.hdr.ContextAddr, page, ErrFormat)
	}

	return nil
}

// readSection reads one section into a fresh, exactly sized buffer.
// Bounds were established by checkSections; a short read here is an
// I/O failure, not a format violation.
func (o *opener) readSection(id layout.SectionID) ([]byte, error) {
	sec := o.hdr.Sections[id]
	buf := make([]byte, sec.Size)
	n, err := o.src.ReadAt(buf, int64(sec.Offset))
	if uint64(n) < sec.Size {
		return nil, fmt.Errorf("bcc: short read of %s section (%d of %d bytes): %w",
			id, n, sec.Size, err)
	}
	return buf, nil
}

func (o *opener) readStringPool() error {
	sec, err := o.readSection(layout.SecStrPool)
	if err != nil {
		return err
	}
	o.pool, err = newStringPool(sec)
	return err
}

// readCachedDependencies materializes the depend_tab section with
// names resolved through the string pool.
func (o *opener) readCachedDependencies() ([]Dependency, error) {
	sec, err := o.readSection(layout.SecDependTab)
	if err != nil {
		return nil, err
	}

	count, err := sectionRecordCount(layout.SecDependTab, sec, layout.DependEntrySize)
	if err != nil {
		return nil, err
	}

	deps := make([]Dependency, count)
	for i := 0; i < count; i++ {
		e := layout.DependEntryAt(sec, i)
		name, err := o.pool.lookup(layout.SecDependTab, e.NameIndex)
		if err != nil {
			return nil, err
		}
		deps[i] = Dependency{Name: name, Type: e.Type, SHA1: e.SHA1}
	}
	return deps, nil
}

// checkDependencies compares the cached dependency table lock-step
// against the caller's expectations. Both sides follow the same
// ordering contract (ascending by name); the verifier does not sort.
func (o *opener) checkDependencies() error {
	cached, err := o.readCachedDependencies()
	if err != nil {
		return err
	}

	if len(cached) != len(o.expected) {
		return &DependencyMismatchError{
			Field:    MismatchCount,
			Expected: fmt.Sprintf("%d", len(o.expected)),
			Cached:   fmt.Sprintf("%d", len(cached)),
		}
	}

	for i, got := range cached {
		want := o.expected[i]
		if want.Name != got.Name {
			return &DependencyMismatchError{
				Name:     want.Name,
				Field:    MismatchName,
				Expected: want.Name,
				Cached:   got.Name,
			}
		}
		if !bytes.Equal(want.SHA1[:], got.SHA1[:]) {
			return &DependencyMismatchError{
				Name:     got.Name,
				Field:    MismatchSHA1,
				Expected: hexFingerprint(want.SHA1[:]),
				Cached:   hexFingerprint(got.SHA1[:]),
			}
		}
		if want.Type != got.Type {
			return &DependencyMismatchError{
				Name:     got.Name,
				Field:    MismatchType,
				Expected: fmt.Sprintf("%d", want.Type),
				Cached:   fmt.Sprintf("%d", got.Type),
			}
		}
	}

	return nil
}

// readExportList materializes an export section (vars or funcs) as
// resolved names. Resolution is eager: downstream consumers get plain
// strings, never pool indices.
func (o *opener) readExportList(id layout.SectionID) ([]string, error) {
	sec, err := o.readSection(id)
	if err != nil {
		return nil, err
	}

	count, err := sectionRecordCount(id, sec, layout.ExportEntrySize)
	if err != nil {
		return nil, err
	}

	names := make([]string, count)
	for i := 0; i < count; i++ {
		names[i], err = o.pool.lookup(id, layout.ExportEntryAt(sec, i))
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (o *opener) readPragmaList() ([]Pragma, error) {
	sec, err := o.readSection(layout.SecPragmaList)
	if err != nil {
		return nil, err
	}

	count, err := sectionRecordCount(layout.SecPragmaList, sec, layout.PragmaEntrySize)
	if err != nil {
		return nil, err
	}

	pragmas := make([]Pragma, count)
	for i := 0; i < count; i++ {
		e := layout.PragmaEntryAt(sec, i)
		key, err := o.pool.lookup(layout.SecPragmaList, e.KeyIndex)
		if err != nil {
			return nil, err
		}
		value, err := o.pool.lookup(layout.SecPragmaList, e.ValueIndex)
		if err != nil {
			return nil, err
		}
		pragmas[i] = Pragma{Key: key, Value: value}
	}
	return pragmas, nil
}

// readFuncTable builds the name → (address, size) mapping consulted
// by the execution layer. Duplicate names keep the first occurrence,
// matching the map-insert semantics of the cache producer.
func (o *opener) readFuncTable() (map[string]FuncInfo, []string, error) {
	sec, err := o.readSection(layout.SecFuncTable)
	if err != nil {
		return nil, nil, err
	}

	count, err := sectionRecordCount(layout.SecFuncTable, sec, layout.FuncEntrySize)
	if err != nil {
		return nil, nil, err
	}

	funcs := make(map[string]FuncInfo, count)
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		e := layout.FuncEntryAt(sec, i)
		name, err := o.pool.lookup(layout.SecFuncTable, e.NameIndex)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := funcs[name]; dup {
			continue
		}
		funcs[name] = FuncInfo{Addr: e.Addr, Size: e.Size}
		names = append(names, name)
	}
	return funcs, names, nil
}

func (o *opener) loadContext() error {
	block, err := o.cfg.loader.Load(uintptr(o.hdr.ContextAddr), o.cfg.contextSize,
		o.src, int64(o.hdr.ContextOffset))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if len(block) != o.cfg.contextSize {
		_ = o.cfg.loader.Release(block)
		return fmt.Errorf("%w: loader returned %d bytes, want %d", ErrLoad, len(block), o.cfg.contextSize)
	}

	o.context = block
	return nil
}

// checkContext XOR-folds the loaded context words with the header's
// parity word; an untampered cache folds to zero.
func (o *opener) checkContext() error {
	if sum := layout.ChecksumFold(o.hdr.ContextChecksum, o.context); sum != 0 {
		return fmt.Errorf("context parity checksum failed (residue %#x): %w", sum, ErrIntegrity)
	}
	return nil
}
