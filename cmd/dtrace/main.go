// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command dtrace is the thin CLI driver over a consumer.Session: its attach
// subcommand builds a session, optionally verifies a signed probe manifest,
// and prints one line per polled record. It attaches no probes itself and
// prints no aggregation snapshots. The D parser
// and typechecker that would turn source text into compiler input are out
// of scope; this binary only exercises the already-compiled pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/saferwall/dtrace-go/bpfmap"
	"github.com/saferwall/dtrace-go/consumer"
	"github.com/saferwall/dtrace-go/dtracelog"
)

var (
	verbose    bool
	nspec      int
	numCPU     int
	ringSize   int
	manifest   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dtrace",
		Short: "poll a tracing session and stream its trace records",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().IntVar(&nspec, "nspec", 8, "number of speculation slots")
	root.PersistentFlags().IntVar(&numCPU, "cpus", 1, "number of CPUs to provision rings for")
	root.PersistentFlags().IntVar(&ringSize, "ring-size", 1<<20, "per-CPU ring buffer data region size, bytes")
	root.PersistentFlags().StringVar(&manifest, "manifest", "", "path to a pkcs7-signed probe manifest required before attach")

	root.AddCommand(newAttachCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newLogger() *dtracelog.Helper {
	if verbose {
		return dtracelog.Debug()
	}
	return dtracelog.Default()
}

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach",
		Short: "poll the session's ring set and print each record until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg := bpfmap.Config{
				NumCPU:     numCPU,
				NSPEC:      nspec,
				RingSize:   uint32(ringSize),
				MaxDvars:   4096,
				MaxAggKeys: 4096,
				MaxProbes:  256,
			}
			sess, err := consumer.NewSession(cfg, log)
			if err != nil {
				return err
			}
			if manifest != "" {
				if err := sess.VerifyManifest(manifest); err != nil {
					return err
				}
			}
			defer sess.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return sess.Poll(ctx, func(rec consumer.ProbeData) {
				fmt.Printf("epid=%d bytes=%d\n", rec.EPID, len(rec.Payload))
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the dtrace toolchain version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s (min compatible %s)\n", consumer.Version, consumer.MinCompatibleVersion)
		},
	}
}
