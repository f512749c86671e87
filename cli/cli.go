// Package cli implements the thin outer command surface (spec §6):
// "install" runs the core once and prints a summary, "preview" serves
// the bundled output statically. Neither command carries any install
// decision itself; both are glue over internal/install.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

const helpMessage = "\033[30mwebinstall - a no-build front-end dependency installer.\033[0m" + `

Usage: webinstall [command] [options]

Commands:
  install   Scan the project, resolve dependencies, and bundle web_modules
  preview   Serve the bundled web_modules directory statically

Options:
  --version, -v   Show the version
  --help, -h      Display this help message
`

// VERSION is set at build time via -ldflags.
var VERSION = "dev"

func Run() {
	if len(os.Args) < 2 {
		fmt.Print(helpMessage)
		return
	}
	switch command := os.Args[1]; command {
	case "install":
		Install()
	case "preview":
		Preview()
	case "version":
		fmt.Println("webinstall CLI " + VERSION)
	default:
		for _, arg := range os.Args[1:] {
			if arg == "--version" || arg == "-v" {
				fmt.Println("webinstall CLI " + VERSION)
				return
			}
		}
		fmt.Print(helpMessage)
	}
}

// resolveProjectDir picks the directory a command operates on: the
// first positional argument if given, else the current working
// directory, verifying it actually names a directory either way.
func resolveProjectDir(args []string) (string, error) {
	if len(args) == 0 {
		return os.Getwd()
	}
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("stat %s: not a directory", dir)
	}
	return dir, nil
}
