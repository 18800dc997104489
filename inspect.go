package bcc

import (
	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

// SectionInfo summarizes one declared section of a cache file.
type SectionInfo struct {
	Name   string
	Offset uint64
	Size   uint64
}

// InspectResult contains the decoded metadata of a cache file: header
// fields, section locations, the cached dependency table, and the
// symbol tables. Obtained from [InspectCache].
type InspectResult struct {
	fileSize    int64
	hdr         *layout.Header
	stringCount int
	deps        []Dependency
	exportVars  []string
	exportFuncs []string
	pragmas     []Pragma
	funcs       []FuncRecord
}

// InspectCache decodes a cache file for diagnostics without opening
// it: the dependency table is reported rather than verified, and the
// context block is neither loaded nor checksummed.
//
// Structural and machine-compatibility validation still applies — a
// cache built for a different machine cannot be decoded at all, since
// the layout is native to its producer.
func InspectCache(src ByteSource, opts ...Option) (*InspectResult, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	o := &opener{cfg: cfg, src: src}
	res, err := o.inspectAll()
	if err != nil {
		cfg.logger.Error("cache inspection failed", "error", err)
		return nil, err
	}
	return res, nil
}

func (o *opener) inspectAll() (*InspectResult, error) {
	if err := o.inspect(); err != nil {
		return nil, err
	}

	deps, err := o.readCachedDependencies()
	if err != nil {
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

	records := make([]FuncRecord, 0, len(funcNames))
	for _, name := range funcNames {
		info := funcs[name]
		records = append(records, FuncRecord{Name: name, Addr: info.Addr, Size: info.Size})
	}

	return &InspectResult{
		fileSize:    o.fileSize,
		hdr:         o.hdr,
		stringCount: o.pool.count(),
		deps:        deps,
		exportVars:  exportVars,
		exportFuncs: exportFuncs,
		pragmas:     pragmas,
		funcs:       records,
	}, nil
}

// inspect runs the structural half of the open pipeline: everything
// up to and including string pool validation.
func (o *opener) inspect() error {
	if err := o.checkFileSize(); err != nil {
		return err
	}
	if err := o.readHeader(); err != nil {
		return err
	}
	if err := o.checkHeader(); err != nil {
		return err
	}
	if err := o.checkMachine(); err != nil {
		return err
	}
	if err := o.checkSections(); err != nil {
		return err
	}
	if err := o.readStringPool(); err != nil {
		return err
	}
	return o.pool.checkTerminators()
}

// FileSize returns the cache file's size in bytes.
func (r *InspectResult) FileSize() int64 {
	return r.fileSize
}

// Version returns the format version string from the header.
func (r *InspectResult) Version() string {
	return string(r.hdr.Version[:])
}

// Endianness returns the header's endianness tag ('e' or 'E').
func (r *InspectResult) Endianness() byte {
	return r.hdr.Endianness
}

// ContextAddr returns the fixed load address of the context block.
func (r *InspectResult) ContextAddr() uint64 {
	return r.hdr.ContextAddr
}

// ContextOffset returns the context block's file offset.
func (r *InspectResult) ContextOffset() uint64 {
	return r.hdr.ContextOffset
}

// ContextChecksum returns the stored context parity word.
func (r *InspectResult) ContextChecksum() uint32 {
	return r.hdr.ContextChecksum
}

// Sections lists the declared sections in header order.
func (r *InspectResult) Sections() []SectionInfo {
	infos := make([]SectionInfo, 0, layout.NumSections)
	for id := layout.SectionID(0); id < layout.NumSections; id++ {
		sec := r.hdr.Sections[id]
		infos = append(infos, SectionInfo{
			Name:   id.String(),
			Offset: sec.Offset,
			Size:   sec.Size,
		})
	}
	return infos
}

// StringCount returns the number of string pool entries.
func (r *InspectResult) StringCount() int {
	return r.stringCount
}

// Dependencies returns the cached dependency table with resolved
// names.
func (r *InspectResult) Dependencies() []Dependency {
	return r.deps
}

// ExportVars returns the exported variable names.
func (r *InspectResult) ExportVars() []string {
	return r.exportVars
}

// ExportFuncs returns the exported function names.
func (r *InspectResult) ExportFuncs() []string {
	return r.exportFuncs
}

// Pragmas returns the cached pragma list in file order.
func (r *InspectResult) Pragmas() []Pragma {
	return r.pragmas
}

// Functions returns the function table in file order.
func (r *InspectResult) Functions() []FuncRecord {
	return r.funcs
}
