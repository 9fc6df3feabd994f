package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-capsulo"
	"github.com/goliatone/go-capsulo/internal/changes"
	"github.com/goliatone/go-capsulo/internal/drafts"
)

var moduleBuilder = func(cfg capsulo.Config) (*capsulo.Module, error) {
	return capsulo.New(cfg)
}

const usage = `usage: capsulo <command> [flags]

commands:
  drafts list                list stored draft keys
  drafts show -key KEY       print the stored draft
  drafts status -key KEY     report whether the draft differs from the baseline
  drafts clear -key KEY      delete the stored draft
  schemas list               list registered component schemas
  history -key KEY           list published revisions (requires -git-repo)`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("capsulo: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "drafts":
		if len(args) < 2 {
			return errors.New(usage)
		}
		return runDrafts(args[1], args[2:], out)
	case "schemas":
		if len(args) < 2 || args[1] != "list" {
			return errors.New(usage)
		}
		return runSchemas(args[2:], out)
	case "history":
		return runHistory(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

type commonFlags struct {
	fs            *flag.FlagSet
	key           *string
	provider      *string
	dialect       *string
	dsn           *string
	redisURL      *string
	schemasDir    *string
	gitRepo       *string
	gitBranch     *string
	defaultLocale *string
	locales       *string
	verbose       *bool
}

func newFlags(name string) *commonFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &commonFlags{
		fs:            fs,
		key:           fs.String("key", "", "Document key (page id or globals)"),
		provider:      fs.String("drafts", capsulo.DraftsProviderMemory, "Draft store provider: memory, bun or redis"),
		dialect:       fs.String("dialect", "sqlite", "Bun dialect: sqlite or postgres"),
		dsn:           fs.String("dsn", "file:capsulo.db?cache=shared", "Bun data source name"),
		redisURL:      fs.String("redis-url", "", "Redis URL for the redis provider"),
		schemasDir:    fs.String("schemas-dir", "", "Directory holding component schema files"),
		gitRepo:       fs.String("git-repo", "", "Content repository used as baseline"),
		gitBranch:     fs.String("git-branch", "main", "Content repository branch"),
		defaultLocale: fs.String("default-locale", "en", "Default locale"),
		locales:       fs.String("locales", "", "Comma separated list of locales"),
		verbose:       fs.Bool("verbose", false, "Enable debug logging"),
	}
}

func (f *commonFlags) parse(args []string, needKey bool) error {
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if needKey && strings.TrimSpace(*f.key) == "" {
		return errors.New("-key is required")
	}
	return nil
}

func (f *commonFlags) config() capsulo.Config {
	cfg := capsulo.DefaultConfig()
	cfg.DefaultLocale = strings.TrimSpace(*f.defaultLocale)
	cfg.Locales = splitLocales(*f.locales, cfg.DefaultLocale)
	cfg.Drafts.Provider = *f.provider
	cfg.Drafts.Bun.Dialect = *f.dialect
	cfg.Drafts.Bun.DSN = *f.dsn
	cfg.Drafts.Redis.URL = *f.redisURL
	cfg.Schemas.Dir = *f.schemasDir
	if repo := strings.TrimSpace(*f.gitRepo); repo != "" {
		cfg.Git.Enabled = true
		cfg.Git.RepoDir = repo
		cfg.Git.Branch = *f.gitBranch
	}
	if *f.verbose {
		cfg.Features.Logger = true
		cfg.Logging.Provider = "gologger"
		cfg.Logging.Format = "console"
		cfg.Logging.Level = "debug"
	}
	return cfg
}

func (f *commonFlags) module() (*capsulo.Module, error) {
	module, err := moduleBuilder(f.config())
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	return module, nil
}

func runDrafts(sub string, args []string, out io.Writer) error {
	flags := newFlags("drafts " + sub)
	if err := flags.parse(args, sub != "list"); err != nil {
		return err
	}
	module, err := flags.module()
	if err != nil {
		return err
	}
	defer module.Close()

	ctx := context.Background()
	store := module.Drafts()
	key := strings.TrimSpace(*flags.key)

	switch sub {
	case "list":
		lister, ok := store.(drafts.Lister)
		if !ok {
			return errors.New("draft store cannot list keys")
		}
		keys, err := lister.Keys(ctx)
		if err != nil {
			return fmt.Errorf("list drafts: %w", err)
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	case "show":
		doc, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read draft %s: %w", key, err)
		}
		if doc == nil {
			return fmt.Errorf("no draft stored for %s", key)
		}
		encoded, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(encoded))
		return nil
	case "status":
		doc, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read draft %s: %w", key, err)
		}
		if doc == nil {
			fmt.Fprintf(out, "%s: no draft\n", key)
			return nil
		}
		baseline, err := module.Container().Remote().LoadBaseline(ctx, key)
		if err != nil {
			return fmt.Errorf("read baseline %s: %w", key, err)
		}
		state := "unpublished changes"
		if changes.DocumentsEqual(doc, baseline) {
			state = "matches baseline"
		}
		fmt.Fprintf(out, "%s: draft with %d components, %s\n", key, len(doc.Components), state)
		return nil
	case "clear":
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete draft %s: %w", key, err)
		}
		fmt.Fprintf(out, "%s: draft cleared\n", key)
		return nil
	default:
		return fmt.Errorf("unknown drafts command %q\n%s", sub, usage)
	}
}

func runSchemas(args []string, out io.Writer) error {
	flags := newFlags("schemas list")
	if err := flags.parse(args, false); err != nil {
		return err
	}
	module, err := flags.module()
	if err != nil {
		return err
	}
	defer module.Close()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKEY\tFIELDS")
	for _, s := range module.Schemas() {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.Name, s.Key, len(s.DataFields()))
	}
	return w.Flush()
}

func runHistory(args []string, out io.Writer) error {
	flags := newFlags("history")
	limit := flags.fs.Int("limit", 20, "Maximum number of revisions")
	if err := flags.parse(args, true); err != nil {
		return err
	}
	module, err := flags.module()
	if err != nil {
		return err
	}
	defer module.Close()

	repo := module.Container().GitStore()
	if repo == nil {
		return errors.New("history requires -git-repo")
	}
	revisions, err := repo.History(context.Background(), strings.TrimSpace(*flags.key), *limit)
	if err != nil {
		return err
	}
	for _, rev := range revisions {
		fmt.Fprintf(out, "%s %s %s %s\n", rev.Hash[:7], rev.CreatedAt.Format("2006-01-02 15:04"), rev.Author, rev.Message)
	}
	return nil
}

func splitLocales(raw, defaultLocale string) []string {
	locales := []string{defaultLocale}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" && part != defaultLocale {
			locales = append(locales, part)
		}
	}
	return locales
}
