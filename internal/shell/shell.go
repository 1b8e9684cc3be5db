// Package shell implements an interactive command loop over
// internal/fsops.FS. It stands in for the "host-bridge main loop" the
// CLI forwards to (spec.md §6) since no real kernel FUSE transport is
// wired into this module (see SPEC_FULL.md §1) — the loop itself is
// adapted from the read-eval-print shell in tranvaj-ZOS2023_SP_GO's
// main.go, with its bespoke inode/bitmap code replaced by calls into
// internal/fsops.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/fsops"
)

var mutatingCommands = map[string]bool{
	"mkdir": true, "rmdir": true, "create": true,
	"rm": true, "write": true, "truncate": true,
}

// Run reads whitespace-separated commands from in, one per line, and
// executes them against fs, writing output to out until in is
// exhausted or a "quit"/"exit" command is read. If readOnly is set,
// every mutating command is rejected before it reaches fs.
func Run(fs *fsops.FS, in io.Reader, out io.Writer, readOnly bool) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}

		cmd := strings.ToLower(args[0])
		switch cmd {
		case "quit", "exit":
			return nil
		default:
			if readOnly && mutatingCommands[cmd] {
				fmt.Fprintf(out, "%s: rejected: image mounted read-only\n", cmd)
				continue
			}
			dispatch(fs, args, out)
		}
	}

	return scanner.Err()
}

func dispatch(fs *fsops.FS, args []string, out io.Writer) {
	cmd := strings.ToLower(args[0])
	rest := args[1:]

	var err error
	switch cmd {
	case "ls":
		err = cmdLs(fs, rest, out)
	case "stat":
		err = cmdStat(fs, rest, out)
	case "mkdir":
		err = cmdSimplePath(fs.Mkdir, "mkdir", rest)
	case "rmdir":
		err = cmdSimplePath(func(p string, _ uint32) error { return fs.Rmdir(p) }, "rmdir", rest)
	case "create":
		err = cmdSimplePath(fs.Create, "create", rest)
	case "rm":
		err = cmdSimplePath(func(p string, _ uint32) error { return fs.Unlink(p) }, "rm", rest)
	case "cat":
		err = cmdCat(fs, rest, out)
	case "write":
		err = cmdWrite(fs, rest, out)
	case "truncate":
		err = cmdTruncate(fs, rest)
	default:
		fmt.Fprintf(out, "unknown command: %s\n", cmd)
		return
	}

	if err != nil {
		fmt.Fprintf(out, "%s: error %d (%v)\n", cmd, edfserr.ToErrno(err), err)
	}
}

func cmdSimplePath(fn func(path string, mode uint32) error, name string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <path>", name)
	}
	return fn(args[0], 0644)
}

func cmdLs(fs *fsops.FS, args []string, out io.Writer) error {
	path := "/"
	if len(args) == 1 {
		path = args[0]
	}
	names, err := fs.Readdir(path)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

func cmdStat(fs *fsops.FS, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stat <path>")
	}
	attr, err := fs.Getattr(args[0])
	if err != nil {
		return err
	}
	kind := "file"
	if attr.IsDir {
		kind = "dir"
	}
	fmt.Fprintf(out, "inumber=%d kind=%s mode=%o nlink=%d size=%d\n",
		attr.Inumber, kind, attr.Mode, attr.Nlink, attr.Size)
	return nil
}

func cmdCat(fs *fsops.FS, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cat <path>")
	}
	attr, err := fs.Getattr(args[0])
	if err != nil {
		return err
	}
	buf := make([]byte, attr.Size)
	n, err := fs.Read(args[0], buf, 0)
	if err != nil {
		return err
	}
	_, err = out.Write(buf[:n])
	return err
}

func cmdWrite(fs *fsops.FS, args []string, out io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write <path> <text...>")
	}
	data := []byte(strings.Join(args[1:], " ") + "\n")
	n, err := fs.Write(args[0], data, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d bytes\n", n)
	return nil
}

func cmdTruncate(fs *fsops.FS, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: truncate <path> <size>")
	}
	size, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("usage: truncate <path> <size>: %w", err)
	}
	return fs.Truncate(args[0], size)
}
