// Command bccinspect prints the contents of a compilation cache
// artifact: header fields, section layout, recorded dependencies,
// exports, pragmas, and the function table.
//
// Usage:
//
//	bccinspect [-v] file.oBCC
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	bcc "github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc"
)

func main() {
	verbose := flag.Bool("v", false, "log validation diagnostics to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: bccinspect [-v] <cache file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var opts []bcc.Option
	if *verbose {
		opts = append(opts, bcc.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	res, err := bcc.InspectCacheFile(flag.Arg(0), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bccinspect: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("file size:        %d bytes\n", res.FileSize())
	fmt.Printf("format version:   %q\n", res.Version())
	fmt.Printf("endianness:       %c\n", res.Endianness())
	fmt.Printf("context address:  %#x\n", res.ContextAddr())
	fmt.Printf("context offset:   %#x\n", res.ContextOffset())
	fmt.Printf("context checksum: %#08x\n", res.ContextChecksum())
	fmt.Printf("string pool:      %d entries\n", res.StringCount())

	fmt.Println("\nsections:")
	for _, sec := range res.Sections() {
		fmt.Printf("  %-18s offset %8d  size %8d\n", sec.Name, sec.Offset, sec.Size)
	}

	if deps := res.Dependencies(); len(deps) > 0 {
		fmt.Println("\ndependencies:")
		for _, dep := range deps {
			fmt.Printf("  %-40s type %d  sha1 %x\n", dep.Name, dep.Type, dep.SHA1)
		}
	}

	if vars := res.ExportVars(); len(vars) > 0 {
		fmt.Println("\nexported variables:")
		for _, name := range vars {
			fmt.Printf("  %s\n", name)
		}
	}

	if funcs := res.ExportFuncs(); len(funcs) > 0 {
		fmt.Println("\nexported functions:")
		for _, name := range funcs {
			fmt.Printf("  %s\n", name)
		}
	}

	if pragmas := res.Pragmas(); len(pragmas) > 0 {
		fmt.Println("\npragmas:")
		for _, p := range pragmas {
			fmt.Printf("  %s = %s\n", p.Key, p.Value)
		}
	}

	if funcs := res.Functions(); len(funcs) > 0 {
		fmt.Println("\nfunctions:")
		for _, fn := range funcs {
			fmt.Printf("  %-32s addr %#x  size %d\n", fn.Name, fn.Addr, fn.Size)
		}
	}
}
