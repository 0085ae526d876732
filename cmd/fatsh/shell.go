package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aligator/fatfs"
	"github.com/spf13/cobra"
)

const shellHelp = `commands:
  ls [PATH]     list the current directory or PATH
  cd PATH       change the current directory
  pwd           print the current directory
  mkdir PATH    create a directory
  touch PATH    create an empty file
  rm PATH       delete a file
  rmdir PATH    delete an empty directory
  cat PATH      print a file
  help          print this message
  exit          leave the shell
`

var errExit = errors.New("exit")

// shell is an interactive session on one FAT32 mount.
// cwd mirrors the current directory of the mount, which only knows its cluster.
type shell struct {
	m   *fatfs.Mount
	cwd string
	out io.Writer
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [IMAGE]",
		Short: "Run an interactive shell on an image, the configured image by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image := Config.Image
			if len(args) == 1 {
				image = args[0]
			}
			if image == "" {
				return errors.New("no image given")
			}
			return withMount(image, func(m *fatfs.Mount) error {
				s := &shell{m: m, cwd: "/", out: cmd.OutOrStdout()}
				return s.run(cmd.InOrStdin())
			})
		},
	}
}

func (s *shell) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(s.out, "%s> ", s.cwd)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		err := s.exec(scanner.Text())
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			report(err)
		}
	}
}

// exec runs one command line. A failing command never ends the session.
func (s *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	arg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s PATH", name)
		}
		return args[0], nil
	}

	switch name {
	case "ls":
		if len(args) == 0 {
			return s.m.ListDirectory(s.out)
		}
		return s.ls(s.abs(args[0]))
	case "cd":
		p, err := arg()
		if err != nil {
			return err
		}
		if err := s.m.ChangeDirectory(p); err != nil {
			return err
		}
		s.cwd = s.abs(p)
		return nil
	case "pwd":
		fmt.Fprintln(s.out, s.cwd)
		return nil
	case "mkdir", "touch", "rm", "rmdir", "cat":
		p, err := arg()
		if err != nil {
			return err
		}
		switch name {
		case "mkdir":
			return s.m.CreateDirectory(p)
		case "touch":
			return s.m.CreateFile(p)
		case "rm":
			return s.m.DeleteFile(p)
		case "rmdir":
			return s.m.DeleteDirectory(p)
		default:
			return cat(s.out, s.m, p)
		}
	case "help":
		fmt.Fprint(s.out, shellHelp)
		return nil
	case "exit", "quit":
		return errExit
	}
	return fmt.Errorf("unknown command %q, try help", name)
}

// ls lists the directory at the absolute path p.
func (s *shell) ls(p string) error {
	buf := make([]byte, 64*1024)
	n, err := s.m.ReadDirectoryToBuffer(p, buf)
	if err != nil {
		return err
	}
	_, err = s.out.Write(buf[:n])
	return err
}

// abs resolves p against the current directory. Like on the volume .. of the root is the root.
func (s *shell) abs(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(s.cwd, p)
}
