package bcc

import (
	"fmt"
	"io"
	"slices"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

// Payload is everything a compilation produces that the cache must
// persist: the executable context, its fixed load address, the
// dependency set the compilation consumed, and the symbol tables.
type Payload struct {
	// ContextAddr is the virtual address the context was compiled
	// for. Must be page-aligned.
	ContextAddr uint64

	// Context is the raw context block. Its length must equal the
	// configured context size.
	Context []byte

	// Dependencies are the resources the compilation read. They are
	// recorded sorted by name ascending regardless of input order,
	// matching the verifier's iteration contract.
	Dependencies []Dependency

	ExportVars  []string
	ExportFuncs []string
	Pragmas     []Pragma
	Funcs       []FuncRecord
}

// Writer serializes cache artifacts.
//
// The produced file always satisfies the reader's structural
// invariants: word-aligned sections, a page-aligned context offset,
// and a parity word that folds the context to zero.
type Writer struct {
	cfg config
}

// NewWriter creates a Writer. WithContextSize and WithPageSize must
// match the reader that will consume the file.
func NewWriter(opts ...Option) *Writer {
	cfg := defaultConfig()
	cfg.apply(opts)
	return &Writer{cfg: cfg}
}

// WriteCache assembles the complete cache image and writes it to out.
func (w *Writer) WriteCache(out io.Writer, p *Payload) error {
	image, err := w.buildImage(p)
	if err != nil {
		return err
	}
	if _, err := out.Write(image); err != nil {
		return fmt.Errorf("bcc: writing cache: %w", err)
	}
	return nil
}

func (w *Writer) buildImage(p *Payload) ([]byte, error) {
	if len(p.Context) != w.cfg.contextSize {
		return nil, fmt.Errorf("bcc: context is %d bytes, writer configured for %d",
			len(p.Context), w.cfg.contextSize)
	}
	if p.ContextAddr%uint64(w.cfg.pageSize) != 0 {
		return nil, fmt.Errorf("bcc: context address %#x is not aligned to page size %d",
			p.ContextAddr, w.cfg.pageSize)
	}

	deps := slices.Clone(p.Dependencies)
	SortDependencies(deps)

	pool := newPoolBuilder()

	dependTab := layout.AppendCount(nil, uint32(len(deps)))
	for _, dep := range deps {
		dependTab = layout.AppendDependEntry(dependTab, layout.DependEntry{
			NameIndex: pool.intern(dep.Name),
			Type:      dep.Type,
			SHA1:      dep.SHA1,
		})
	}

	exportVars := buildExportSection(pool, p.ExportVars)
	exportFuncs := buildExportSection(pool, p.ExportFuncs)

	pragmaList := layout.AppendCount(nil, uint32(len(p.Pragmas)))
	for _, pr := range p.Pragmas {
		pragmaList = layout.AppendPragmaEntry(pragmaList, layout.PragmaEntry{
			KeyIndex:   pool.intern(pr.Key),
			ValueIndex: pool.intern(pr.Value),
		})
	}

	funcTable := layout.AppendCount(nil, uint32(len(p.Funcs)))
	for _, fn := range p.Funcs {
		funcTable = layout.AppendFuncEntry(funcTable, layout.FuncEntry{
			NameIndex: pool.intern(fn.Name),
			Size:      fn.Size,
			Addr:      fn.Addr,
		})
	}

	// Relocation table: declared, bounds-checked by readers, never
	// populated. Relocation is not implemented.
	relocTab := layout.AppendCount(nil, 0)

	strPool := pool.encode()

	hdr := &layout.Header{
		Endianness:      layout.HostEndianness(),
		SizeofOffT:      layout.HostSizeofOffT,
		SizeofSizeT:     layout.HostSizeofSizeT,
		SizeofPtrT:      layout.HostSizeofPtrT,
		ContextAddr:     p.ContextAddr,
		ContextChecksum: layout.ChecksumFold(0, p.Context),
	}
	copy(hdr.Magic[:], layout.Magic)
	copy(hdr.Version[:], layout.Version)

	// Sections follow the header in declaration order, each aligned
	// to the word size; the context goes last on a page boundary.
	sections := [layout.NumSections][]byte{
		layout.SecStrPool:        strPool,
		layout.SecDependTab:      dependTab,
		layout.SecRelocTab:       relocTab,
		layout.SecExportVarList:  exportVars,
		layout.SecExportFuncList: exportFuncs,
		layout.SecPragmaList:     pragmaList,
		layout.SecFuncTable:      funcTable,
	}

	offset := uint64(layout.HeaderSize)
	for id, body := range sections {
		offset = alignUp(offset, layout.WordSize)
		hdr.Sections[id] = layout.Section{Offset: offset, Size: uint64(len(body))}
		offset += uint64(len(body))
	}

	hdr.ContextOffset = alignUp(offset, uint64(w.cfg.pageSize))

	image := make([]byte, hdr.ContextOffset+uint64(len(p.Context)))
	copy(image, hdr.Encode())
	for id, body := range sections {
		copy(image[hdr.Sections[id].Offset:], body)
	}
	copy(image[hdr.ContextOffset:], p.Context)

	return image, nil
}

func buildExportSection(pool *poolBuilder, names []string) []byte {
	sec := layout.AppendCount(nil, uint32(len(names)))
	for _, name := range names {
		sec = layout.AppendExportEntry(sec, pool.intern(name))
	}
	return sec
}

func alignUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}

// poolBuilder deduplicates strings and encodes the str_pool section.
type poolBuilder struct {
	index map[string]uint32
	names []string
}

func newPoolBuilder() *poolBuilder {
	return &poolBuilder{index: make(map[string]uint32)}
}

// intern returns the pool index for s, adding it on first sight.
func (b *poolBuilder) intern(s string) uint32 {
	if idx, ok := b.index[s]; ok {
		return idx
	}
	idx := uint32(len(b.names))
	b.index[s] = idx
	b.names = append(b.names, s)
	return idx
}

// encode lays out the section: count, entry table, then the blob of
// NUL-terminated strings. Entry offsets are relative to the section
// start.
func (b *poolBuilder) encode() []byte {
	sec := layout.AppendCount(nil, uint32(len(b.names)))

	blobStart := uint32(layout.CountSize + len(b.names)*layout.StrEntrySize)
	offset := blobStart
	for _, name := range b.names {
		sec = layout.AppendStrEntry(sec, layout.StrEntry{
			Offset: offset,
			Length: uint32(len(name)),
		})
		offset += uint32(len(name)) + 1
	}

	for _, name := range b.names {
		sec = append(sec, name...)
		sec = append(sec, 0)
	}
	return sec
}
