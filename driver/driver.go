// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver implements a line-oriented scripting front end for an
// snescom.Object: a command tree (grounded on go6502's host command
// dispatch) drives Object's consumer API, with an expression parser
// supplying numeric arguments that may reference labels already defined
// in the object under construction.
package driver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/snescom"
	"github.com/beevik/snescom/ips"
	"github.com/beevik/snescom/o65"
	"github.com/beevik/snescom/warn"
)

var cmds = cmd.NewTree("snescom", []cmd.Command{
	{Name: "help", Shortcut: "?", Data: (*Driver).cmdHelp},
	{Name: "byte", Brief: "Generate bytes", Description: "Append one or more byte values at the current position.", HelpText: "byte <expr> [<expr>...]", Data: (*Driver).cmdByte},
	{Name: "label", Brief: "Define a label", Description: "Define a label at the current position, or at an explicit value.", HelpText: "label <name> [<value>]", Data: (*Driver).cmdLabel},
	{Name: "undef", Brief: "Undefine a label", HelpText: "undef <name>", Data: (*Driver).cmdUndef},
	{Name: "extern", Brief: "Reference an external symbol", Description: "Record a pending reference to name, to be patched with the given relocation kind once it resolves.", HelpText: "extern <kind> <name> [<value>]", Data: (*Driver).cmdExtern},
	{Name: "scope", Brief: "Scope commands", Subcommands: cmd.NewTree("Scope", []cmd.Command{
		{Name: "start", Description: "Begin a new nested scope.", HelpText: "scope start", Data: (*Driver).cmdScopeStart},
		{Name: "end", Description: "End the current scope, resolving pending externs against it.", HelpText: "scope end", Data: (*Driver).cmdScopeEnd},
	})},
	{Name: "segment", Brief: "Select the current segment", HelpText: "segment <CODE|DATA|ZERO|BSS>", Data: (*Driver).cmdSegment},
	{Name: "org", Brief: "Set the current position", HelpText: "org <expr>", Data: (*Driver).cmdOrg},
	{Name: "linkage", Brief: "Set the object's linkage wish", HelpText: "linkage anywhere | group <n> | page <n>", Data: (*Driver).cmdLinkage},
	{Name: "write", Brief: "Write the object to a file", Subcommands: cmd.NewTree("Write", []cmd.Command{
		{Name: "o65", Description: "Write the object in O65 format.", HelpText: "write o65 <file>", Data: (*Driver).cmdWriteO65},
		{Name: "ips", Description: "Write the object as an IPS patch.", HelpText: "write ips <file>", Data: (*Driver).cmdWriteIPS},
	})},
	{Name: "dump", Brief: "Dump labels, externs and fixups", HelpText: "dump", Data: (*Driver).cmdDump},
	{Name: "clear", Brief: "Reset the object, keeping diagnostics", HelpText: "clear", Data: (*Driver).cmdClear},
	{Name: "set", Brief: "Set a warning category", HelpText: "set <unusedlabel|use32> <true|false>", Data: (*Driver).cmdSet},
	{Name: "execute", Brief: "Run a script file", HelpText: "execute <file>", Data: (*Driver).cmdExecute},
	{Name: "quit", Brief: "Quit the program", Data: (*Driver).cmdQuit},
})

// A Driver owns the Object under construction, its warning settings,
// and the input/output streams of one scripting session. It applies
// command lines to the Object in strict serial order, matching
// spec.md §5's single-threaded, cooperative concurrency model.
type Driver struct {
	Obj      *snescom.Object
	Settings *warn.Settings

	output      *bufio.Writer
	interactive bool
	reprocessed bool
	quit        bool
}

// New creates a Driver around a freshly-constructed Object, wired to
// warn through settings.
func New(settings *warn.Settings) *Driver {
	if settings == nil {
		settings = warn.New()
	}
	return &Driver{
		Obj:      snescom.New(settings),
		Settings: settings,
	}
}

// RunCommands reads command lines from r, applying each to the Object
// in turn, and writes responses to w. If interactive is true, a prompt
// is displayed before each line is read.
func (d *Driver) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	d.output = bufio.NewWriter(w)
	d.interactive = interactive

	scanner := bufio.NewScanner(r)
	for !d.quit {
		if d.interactive {
			d.printf("* ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sel, err := cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			d.println("command not found.")
			continue
		case err == cmd.ErrAmbiguous:
			d.println("command is ambiguous.")
			continue
		case err != nil:
			d.printf("error: %v\n", err)
			continue
		}
		if sel.Command == nil || sel.Command.Data == nil {
			continue
		}

		handler := sel.Command.Data.(func(*Driver, cmd.Selection) error)
		if err := handler(d, sel); err != nil {
			d.printf("error: %v\n", err)
		}
	}
	d.output.Flush()
}

func (d *Driver) printf(f string, a ...any) { fmt.Fprintf(d.output, f, a...); d.output.Flush() }
func (d *Driver) println(args ...any)       { fmt.Fprintln(d.output, args...); d.output.Flush() }

// ResolveIdentifier implements driver.Resolver: a bare name in an
// expression is looked up as a label already defined in the Object.
// Extern names are not resolved.
func (d *Driver) ResolveIdentifier(name string) (int, error) {
	if _, offset, ok := d.Obj.FindLabel(name); ok {
		return offset, nil
	}
	return 0, fmt.Errorf("identifier %q not found", name)
}

func (d *Driver) eval(s string) (int, error) {
	return Eval(s, d)
}

func (d *Driver) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		d.println("Commands:")
		for _, cd := range cmds.Commands {
			if cd.Brief != "" {
				d.printf("    %-10s %s\n", cd.Name, cd.Brief)
			}
		}
		return nil
	}
	sel, err := cmds.Lookup(strings.Join(c.Args, " "))
	if err != nil {
		return err
	}
	if sel.Command.HelpText != "" {
		d.printf("Syntax: %s\n", sel.Command.HelpText)
	}
	return nil
}

func (d *Driver) cmdByte(c cmd.Selection) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("byte requires at least one value")
	}
	for _, a := range c.Args {
		v, err := d.eval(a)
		if err != nil {
			return err
		}
		d.Obj.GenerateByte(byte(v))
	}
	return nil
}

func (d *Driver) cmdLabel(c cmd.Selection) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("label requires a name")
	}
	if len(c.Args) >= 2 {
		v, err := d.eval(c.Args[1])
		if err != nil {
			return err
		}
		d.Obj.DefineLabel(c.Args[0], v)
		return nil
	}
	d.Obj.DefineLabel(c.Args[0])
	return nil
}

func (d *Driver) cmdUndef(c cmd.Selection) error {
	if len(c.Args) != 1 {
		return fmt.Errorf("undef requires exactly one name")
	}
	d.Obj.UndefineLabel(c.Args[0])
	return nil
}

func (d *Driver) cmdExtern(c cmd.Selection) error {
	if len(c.Args) < 2 {
		return fmt.Errorf("extern requires a kind and a name")
	}
	kind, err := parseKind(c.Args[0])
	if err != nil {
		return err
	}
	value := 0
	if len(c.Args) >= 3 {
		value, err = d.eval(c.Args[2])
		if err != nil {
			return err
		}
	}
	d.Obj.AddExtern(kind, c.Args[1], value)
	return nil
}

func parseKind(s string) (snescom.RelocKind, error) {
	switch strings.ToUpper(s) {
	case "LOBYTE":
		return snescom.LoByte, nil
	case "HIBYTE":
		return snescom.HiByte, nil
	case "ABSWORD":
		return snescom.AbsWord, nil
	case "LONG":
		return snescom.Long, nil
	case "SEGBYTE":
		return snescom.SegByte, nil
	case "REL8":
		return snescom.Rel8, nil
	case "REL16":
		return snescom.Rel16, nil
	default:
		return 0, fmt.Errorf("unknown relocation kind %q", s)
	}
}

func (d *Driver) cmdScopeStart(c cmd.Selection) error {
	d.Obj.StartScope()
	return nil
}

func (d *Driver) cmdScopeEnd(c cmd.Selection) error {
	d.Obj.EndScope()
	return nil
}

func (d *Driver) cmdSegment(c cmd.Selection) error {
	if len(c.Args) != 1 {
		return fmt.Errorf("segment requires exactly one name")
	}
	id, err := parseSegment(c.Args[0])
	if err != nil {
		return err
	}
	d.Obj.CurSegment = id
	return nil
}

func parseSegment(s string) (snescom.SegmentID, error) {
	switch strings.ToUpper(s) {
	case "CODE":
		return snescom.CODE, nil
	case "DATA":
		return snescom.DATA, nil
	case "ZERO":
		return snescom.ZERO, nil
	case "BSS":
		return snescom.BSS, nil
	default:
		return 0, fmt.Errorf("unknown segment %q", s)
	}
}

func (d *Driver) cmdOrg(c cmd.Selection) error {
	if len(c.Args) != 1 {
		return fmt.Errorf("org requires an address expression")
	}
	v, err := d.eval(c.Args[0])
	if err != nil {
		return err
	}
	d.Obj.SetPos(v)
	return nil
}

func (d *Driver) cmdLinkage(c cmd.Selection) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("linkage requires a wish")
	}
	switch strings.ToLower(c.Args[0]) {
	case "anywhere":
		d.Obj.SetLinkage(snescom.LinkAnywhere())
	case "group":
		n, err := d.linkageArg(c.Args)
		if err != nil {
			return err
		}
		d.Obj.SetLinkage(snescom.LinkInGroup(n))
	case "page":
		n, err := d.linkageArg(c.Args)
		if err != nil {
			return err
		}
		d.Obj.SetLinkage(snescom.LinkThisPage(n))
	default:
		return fmt.Errorf("unknown linkage wish %q", c.Args[0])
	}
	return nil
}

func (d *Driver) linkageArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("linkage %s requires a number", args[0])
	}
	return d.eval(args[1])
}

func (d *Driver) cmdWriteO65(c cmd.Selection) error {
	filename, err := filenameArg(c.Args)
	if err != nil {
		return fmt.Errorf("write o65 requires a filename")
	}
	d.Obj.CloseSegments(d.reprocessed)
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return o65.Write(f, d.Obj, d.Settings)
}

func (d *Driver) cmdWriteIPS(c cmd.Selection) error {
	filename, err := filenameArg(c.Args)
	if err != nil {
		return fmt.Errorf("write ips requires a filename")
	}
	d.Obj.CloseSegments(d.reprocessed)
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return ips.Write(f, d.Obj, d.Settings)
}

// filenameArg re-splits a command's already-whitespace-separated Args
// with fields, so a filename containing spaces can be written quoted
// ("my file.o65") even though the cmd dispatcher only tokenizes on
// whitespace.
func filenameArg(args []string) (string, error) {
	parts := fields(strings.Join(args, " "))
	if len(parts) != 1 {
		return "", fmt.Errorf("expected exactly one filename")
	}
	return parts[0], nil
}

func (d *Driver) cmdDump(c cmd.Selection) error {
	d.Obj.Dump(d.output)
	d.output.Flush()
	return nil
}

func (d *Driver) cmdClear(c cmd.Selection) error {
	d.Obj.ClearMost()
	return nil
}

func (d *Driver) cmdSet(c cmd.Selection) error {
	if len(c.Args) == 0 {
		d.Settings.Display(d.output)
		d.output.Flush()
		return nil
	}
	if len(c.Args) != 2 {
		return fmt.Errorf("set requires a name and a value")
	}
	v, err := strconv.ParseBool(c.Args[1])
	if err != nil {
		return fmt.Errorf("invalid boolean %q", c.Args[1])
	}
	return d.Settings.Set(c.Args[0], v)
}

func (d *Driver) cmdExecute(c cmd.Selection) error {
	filename, err := filenameArg(c.Args)
	if err != nil {
		return fmt.Errorf("execute requires a filename")
	}
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	child := &Driver{Obj: d.Obj, Settings: d.Settings, reprocessed: d.reprocessed}
	child.RunCommands(f, d.output, false)
	return nil
}

func (d *Driver) cmdQuit(c cmd.Selection) error {
	d.quit = true
	return nil
}
