package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/metcalfc/limn/internal/acquire"
	"github.com/metcalfc/limn/internal/catalog"
	"github.com/metcalfc/limn/internal/config"
	"github.com/metcalfc/limn/internal/illustrate"
	"github.com/metcalfc/limn/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	configPath  string
	configSet   bool
	relayURL    string
	catalogURL  string
	logPath     string
	search      string
	page        int
	fresh       bool
	showVersion bool
	locator     string
}

// parseFlags reads the command line shared by both front ends.
func parseFlags(name, title string, args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to config file")
	fs.StringVar(&opts.relayURL, "relay", "", "Relay URL used to fetch books; empty fetches directly (overrides config)")
	fs.StringVar(&opts.catalogURL, "catalog", "", "Catalog API URL (overrides config)")
	fs.StringVar(&opts.logPath, "log", "", "Write logs to this file")
	fs.StringVar(&opts.search, "search", "", "Search the catalog and print matching books")
	fs.IntVar(&opts.page, "page", 1, "Catalog page to print with -search")
	fs.BoolVar(&opts.fresh, "fresh", false, "Ignore saved reading position")
	fs.BoolVar(&opts.showVersion, "v", false, "Show version information")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.Usage = func() { printUsage(fs.Output(), fs, name, title) }
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configSet = true
		}
	})
	if fs.NArg() > 0 {
		opts.locator = strings.TrimSpace(fs.Arg(0))
	}
	if opts.page < 1 {
		opts.page = 1
	}
	return opts, nil
}

func printUsage(out io.Writer, fs *flag.FlagSet, name, title string) {
	fmt.Fprintf(out, "%s\n\n", title)
	fmt.Fprintf(out, "Usage:\n")
	fmt.Fprintf(out, "  %s [options] [book]\n\n", name)
	fmt.Fprintf(out, "A book is a Project Gutenberg id, a URL, or a local file.\n")
	fmt.Fprintf(out, "Files other than %s are read as plain text.\n", strings.Join(acquire.SupportedFormats(), ", "))
	fmt.Fprintf(out, "Books are fetched directly unless -relay or relay_url in the config names a relay.\n\n")
	fmt.Fprintf(out, "Options:\n")
	fs.SetOutput(out)
	fs.PrintDefaults()
	fmt.Fprintf(out, "\nExamples:\n")
	fmt.Fprintf(out, "  %s 84                      Read Frankenstein\n", name)
	fmt.Fprintf(out, "  %s book.epub               Read a local file\n", name)
	fmt.Fprintf(out, "  %s -relay http://localhost:8080/ 84\n", name)
	fmt.Fprintf(out, "                              Fetch through limn-relay\n")
	fmt.Fprintf(out, "  %s -search dickens         List matching books\n", name)
	fmt.Fprintf(out, "\nThe illustration key is read from $%s unless set in the config file.\n", config.DefaultAPIKeyEnv)
}

// app holds the long-lived collaborators of a reading session.
type app struct {
	cfg      config.Config
	logger   *log.Logger
	acquirer *acquire.Acquirer
	catalog  *catalog.Client
	store    *state.Store
	service  illustrate.Service
	fresh    bool
	closer   io.Closer
}

// newApp loads configuration and wires every component.
func newApp(opts options) (*app, error) {
	cfg, err := config.Load(opts.configPath, opts.configSet)
	if err != nil {
		return nil, err
	}
	cfg = config.Merge(cfg, config.Config{RelayURL: opts.relayURL, CatalogURL: opts.catalogURL})

	a := &app{cfg: cfg, fresh: opts.fresh}
	a.logger = log.New(io.Discard, "", 0)
	if opts.logPath != "" {
		f, err := tea.LogToFile(opts.logPath, "limn")
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		a.closer = f
		a.logger = log.Default()
	}

	client := &http.Client{Timeout: acquire.FetchTimeout}
	a.acquirer = acquire.New(cfg.RelayURL, client, a.logger)
	a.catalog = catalog.New(cfg.CatalogURL, client)
	a.service = illustrate.NewOpenRouter(cfg.Service(), a.logger)

	if store, err := state.Open(); err == nil {
		a.store = store
		a.logger.Printf("[INFO] %d saved reading positions", store.Len())
	} else {
		a.logger.Printf("[WARN] reading positions disabled: %v", err)
	}

	if cfg.APIKey() == "" {
		a.logger.Printf("[WARN] no illustration key; set $%s or illustration.api_key", cfg.Illustration.APIKeyEnv)
	}
	return a, nil
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// run handles the non-interactive modes shared by both front ends. It
// returns done when the process should exit without starting a reader.
func run(name, title string, args []string, stdout io.Writer) (opts options, a *app, done bool) {
	opts, err := parseFlags(name, title, args)
	if err == flag.ErrHelp {
		return opts, nil, true
	}
	if err != nil {
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "%s %s (commit: %s, built: %s)\n", name, version, commit, date)
		return opts, nil, true
	}

	a, err = newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.search != "" {
		defer a.Close()
		if err := printSearch(a, opts.search, opts.page, stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return opts, a, true
	}

	if opts.locator == "" {
		fmt.Fprintln(os.Stderr, "Error: No book provided. Give a Project Gutenberg id, a URL or a file.")
		fmt.Fprintf(os.Stderr, "Try: %s -h\n", name)
		os.Exit(1)
	}
	return opts, a, false
}
