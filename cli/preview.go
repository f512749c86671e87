package cli

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ije/gox/term"
	"github.com/ije/rex"

	"webinstall/internal/config"
)

const previewHelpMessage = `Serve a bundled web_modules directory statically, for local inspection.

Usage: webinstall preview [project-dir] [options]

Arguments:
  project-dir   Directory containing webinstall.json, default is the current directory

Options:
  --port        Port to serve on, default is 8080
  --help, -h    Show help message

This is not a dev server: no HMR, no file watching, no source
transforms. It only serves what "webinstall install" already produced.
`

// Preview serves installOptions.dest statically. It never runs an
// install itself; run "webinstall install" first.
func Preview() {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	port := fs.Int("port", 8080, "port to serve on")
	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Print(previewHelpMessage)
		return
	}

	projectRoot, err := resolveProjectDir(fs.Args())
	if err != nil {
		os.Stderr.WriteString(term.Red(err.Error()) + "\n")
		os.Exit(1)
	}

	cfg, err := loadOrDefaultConfig(filepath.Join(projectRoot, "webinstall.json"))
	if err != nil {
		os.Stderr.WriteString(term.Red(err.Error()) + "\n")
		os.Exit(1)
	}

	if strings.Contains(cfg.InstallOptions.Dest, "://") {
		os.Stderr.WriteString(term.Red("preview only serves a local destination, not "+cfg.InstallOptions.Dest) + "\n")
		os.Exit(1)
	}

	rex.Use(staticHandler(cfg))

	c := rex.Serve(rex.ServerConfig{Port: uint16(*port)})
	fmt.Println(term.Green(fmt.Sprintf("Serving %s on http://localhost:%d", cfg.InstallOptions.Dest, *port)))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	select {
	case <-sig:
	case err := <-c:
		os.Stderr.WriteString(term.Red(err.Error()) + "\n")
	}
}

// staticHandler serves files out of cfg.InstallOptions.Dest verbatim,
// the same Content-serving idiom the teacher's CDN handler uses for
// its own static responses.
func staticHandler(cfg *config.Config) rex.Handle {
	root := cfg.InstallOptions.Dest
	return func(ctx *rex.Context) interface{} {
		pathname := ctx.Path.String()
		if strings.Contains(pathname, "..") {
			return rex.Status(404, "not found")
		}
		full := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(pathname, "/")))
		if pathname == "/" {
			full = filepath.Join(root, "import-map.json")
		}
		fi, err := os.Stat(full)
		if err != nil || fi.IsDir() {
			return rex.Status(404, "not found")
		}
		f, err := os.Open(full)
		if err != nil {
			return err
		}
		return rex.Content(full, fi.ModTime(), f)
	}
}
