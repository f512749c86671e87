package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ije/gox/term"

	"webinstall/internal/config"
	"webinstall/internal/install"
)

const installHelpMessage = `Scan the project, resolve dependencies, and bundle web_modules.

Usage: webinstall install [project-dir] [options]

Arguments:
  project-dir   Directory to install into, default is the current directory

Options:
  --config      Path to the config file, default is "webinstall.json" in project-dir
  --help, -h    Show help message
`

// Install runs the core once over the resolved project directory and
// prints a one-line-per-target summary.
func Install() {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	cfgFlag := fs.String("config", "", "path to the config file")
	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Print(installHelpMessage)
		return
	}

	projectRoot, err := resolveProjectDir(fs.Args())
	if err != nil {
		os.Stderr.WriteString(term.Red(err.Error()) + "\n")
		os.Exit(1)
	}

	cfgPath := *cfgFlag
	if cfgPath == "" {
		cfgPath = filepath.Join(projectRoot, "webinstall.json")
	}
	cfg, err := loadOrDefaultConfig(cfgPath)
	if err != nil {
		os.Stderr.WriteString(term.Red(err.Error()) + "\n")
		os.Exit(1)
	}

	fmt.Println(term.Yellow("!"), "Removing and rebuilding", term.Dim(cfg.InstallOptions.Dest))

	startTime := time.Now()
	result := install.Run(context.Background(), cfg, projectRoot)

	for _, w := range result.Errors {
		if result.Success {
			fmt.Println(term.Yellow("[warn]"), w.Error())
		} else {
			fmt.Println(term.Red("[error]"), w.Error())
		}
	}

	if !result.Success {
		os.Exit(1)
	}

	if result.ImportMap != nil {
		for _, specifier := range result.ImportMap.Imports.Keys() {
			url, _ := result.ImportMap.Imports.Get(specifier)
			fmt.Println(term.Green("✔"), specifier, term.Dim("→"), term.Dim(url))
		}
	}
	for _, s := range result.Stats {
		fmt.Println(term.Dim(fmt.Sprintf("  %s  %d bytes  %d deps", s.Specifier, s.Bytes, s.DependencyCount)))
	}

	status := term.Green("✦")
	if result.HasError {
		status = term.Yellow("✦")
	}
	fmt.Println(status, "Done in", term.Dim(time.Since(startTime).String()))
}

func loadOrDefaultConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return config.LoadConfig(path)
}
