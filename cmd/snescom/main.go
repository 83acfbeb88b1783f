// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/beevik/snescom/driver"
	"github.com/beevik/snescom/ips"
	"github.com/beevik/snescom/o65"
	"github.com/beevik/snescom/warn"
)

var (
	writeO65 string
	writeIPS string
	reproc   bool
)

func init() {
	flag.StringVar(&writeO65, "o65", "", "assemble scripts then write an O65 object file")
	flag.StringVar(&writeIPS, "ips", "", "assemble scripts then write an IPS patch")
	flag.BoolVar(&reproc, "reprocessed", false, "treat this as a second assembly pass")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: snescom [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	d := driver.New(warn.New())

	args := flag.Args()
	if len(args) > 0 {
		for _, filename := range args {
			file, err := os.Open(filename)
			if err != nil {
				exitOnError(err)
			}
			d.RunCommands(file, os.Stdout, false)
			file.Close()
		}
	}

	if writeO65 != "" || writeIPS != "" {
		d.Obj.CloseSegments(reproc)
		for _, diag := range d.Obj.Diags.All() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", diag.Category, diag.Message)
		}
		if writeO65 != "" {
			writeObject(writeO65, func(f *os.File) error { return o65.Write(f, d.Obj, d.Settings) })
		}
		if writeIPS != "" {
			writeObject(writeIPS, func(f *os.File) error { return ips.Write(f, d.Obj, d.Settings) })
		}
		os.Exit(0)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(c)

	d.RunCommands(os.Stdin, os.Stdout, true)
}

func writeObject(filename string, write func(*os.File) error) {
	f, err := os.Create(filename)
	if err != nil {
		exitOnError(err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		exitOnError(err)
	}
}

func handleInterrupt(c chan os.Signal) {
	for {
		<-c
		fmt.Println()
		os.Exit(1)
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
