// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command dtracedump prints the disassembly of a raw instruction stream,
// and optionally the decoded instructions as JSON, the way the teacher's
// dump tool prints a PE file's structure: it never attaches to a probe, it
// only inspects already-encoded instructions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/saferwall/dtrace-go/difo"
	"github.com/saferwall/dtrace-go/difo/disasm"
)

type config struct {
	wantInsns  bool
	wantRecord bool
	wantAll    bool
}

func main() {
	dumpCmd := flag.NewFlagSet("dump", flag.ExitOnError)
	dumpInsns := dumpCmd.Bool("insns", false, "print disassembled instructions")
	dumpRecord := dumpCmd.Bool("record", false, "print the decoded instructions as JSON")
	dumpAll := dumpCmd.Bool("all", false, "print everything")

	verCmd := flag.NewFlagSet("version", flag.ExitOnError)

	if len(os.Args) < 2 {
		showHelp()
	}

	switch os.Args[1] {
	case "dump":
		dumpCmd.Parse(os.Args[2:])
		if dumpCmd.NArg() < 1 {
			showHelp()
		}

		cfg := config{
			wantInsns:  *dumpInsns,
			wantRecord: *dumpRecord,
			wantAll:    *dumpAll,
		}
		if err := runDump(dumpCmd.Arg(0), cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

	case "version":
		verCmd.Parse(os.Args[2:])
		fmt.Println("dtracedump 0.1.0")
	default:
		showHelp()
	}
}

func showHelp() {
	fmt.Print(
		`
dtracedump: inspect a compiled dtrace object.
`)
	fmt.Println("\nAvailable sub-commands 'dump' or 'version'")
	os.Exit(1)
}

func runDump(path string, cfg config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	insns := difo.DecodeInsns(raw)

	if cfg.wantInsns || cfg.wantAll {
		for i, ins := range insns {
			fmt.Printf("%4d: %s\n", i, disasm.Format(ins))
		}
	}

	if cfg.wantRecord || cfg.wantAll {
		b, err := json.MarshalIndent(insns, "", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	}
	return nil
}
