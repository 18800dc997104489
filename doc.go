// Package bcc reads compilation-cache artifacts produced by the
// bitcode compiler, so that an invocation with identical inputs can
// skip recompilation and load precomputed machine code directly.
//
// A cache file carries a fixed header, a string pool, a dependency
// table, export and pragma tables, a function table, and a raw
// executable context block. [OpenCache] validates all of it — format,
// machine compatibility, section bounds, string termination,
// dependency fingerprints, and the context parity checksum — and
// returns an [Artifact] only when every check passes. On any failure
// the cache is rejected as a whole; the caller's recourse is to
// recompile from source.
//
// # Quick start
//
// Open a cache file, supplying the dependency set the current build
// expects (sorted by name ascending):
//
//	deps := []bcc.Dependency{dep}
//	bcc.SortDependencies(deps)
//	art, err := bcc.OpenCacheFile("script.oBCC", deps)
//	if err != nil {
//	    return err // stale or damaged cache: recompile
//	}
//	defer art.Close()
//	fn, ok := art.LookupFunction("main")
//
// # Loading the context
//
// The context block is placed in memory by a [ContextLoader]. The
// default [MemLoader] copies the bytes into an ordinary buffer, which
// is sufficient for inspection and testing. To map the context
// executable at its recorded address, pass [ExecLoader] (Linux only):
//
//	art, err := bcc.OpenCacheFile(path, deps,
//	    bcc.WithContextLoader(bcc.ExecLoader{}),
//	)
//
// A refused or already-occupied load address fails the open; the
// reader never relocates the context to an alternate address.
//
// # Caching opened artifacts
//
// Use the cache subpackage to memoize opened artifacts and deduplicate
// concurrent opens of the same file.
package bcc
