// Command osisdb imports OSIS XML Bible texts into a SQLite database.
// It recovers verse boundaries and word tokens from milestone-encoded OSIS
// documents in one streaming pass and writes them with full-replace
// semantics: a run either fully replaces the corpus or leaves it untouched.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	"github.com/preacherhelper/osisdb/core/osis"
	"github.com/preacherhelper/osisdb/core/store"
	"github.com/preacherhelper/osisdb/internal/logging"
	"github.com/preacherhelper/osisdb/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for osisdb.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" help:"Log format (text, json)"`

	Import  ImportCmd  `cmd:"" help:"Import an OSIS XML file into a SQLite database"`
	Inspect InspectCmd `cmd:"" help:"Show the work header of an OSIS XML file"`
	Stats   StatsCmd   `cmd:"" help:"Show record counts and run metadata of a database"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ImportCmd imports one OSIS document, replacing any prior corpus.
type ImportCmd struct {
	Path string `arg:"" help:"OSIS XML file (.xml, .xml.gz, .xml.xz)" type:"existingfile"`
	DB   string `required:"" help:"SQLite database path" type:"path"`
}

func (c *ImportCmd) Run(ctx context.Context) error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	if err := validation.ValidatePath(c.DB); err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}

	res, err := store.Run(ctx, c.DB, c.Path)
	if err != nil {
		return err
	}

	s := res.Summary
	fmt.Printf("Imported %d books, %d chapters, %d verses, %d tokens in %s\n",
		s.Books, s.Chapters, s.Verses, s.Tokens, res.Elapsed.Round(time.Millisecond))
	fmt.Printf("  tagged words: %d, plain tokens: %d\n", s.TaggedWords, s.PlainTokens)
	fmt.Printf("  run %s, source blake3 %s\n", res.RunID, res.SourceHash)
	return nil
}

// InspectCmd prints the OSIS work header without importing anything.
type InspectCmd struct {
	Path string `arg:"" help:"OSIS XML file" type:"existingfile"`
}

func (c *InspectCmd) Run(ctx context.Context) error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}

	src, err := osis.OpenSource(c.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := osis.ReadWorkInfo(src)
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Println("no work header")
		return nil
	}

	print := func(label, value string) {
		if value != "" {
			fmt.Printf("%-13s %s\n", label+":", value)
		}
	}
	print("identifier", info.Identifier)
	print("title", info.Title)
	print("language", info.Language)
	print("description", info.Description)
	print("versification", info.RefSystem)
	return nil
}

// StatsCmd reports what an imported database contains.
type StatsCmd struct {
	DB string `required:"" help:"SQLite database path" type:"existingfile"`
}

func (c *StatsCmd) Run(ctx context.Context) error {
	counts, meta, err := store.Stats(ctx, c.DB)
	if err != nil {
		return err
	}

	fmt.Printf("books: %d\nchapters: %d\nverses: %d\ntokens: %d\n",
		counts.Books, counts.Chapters, counts.Verses, counts.Tokens)
	for _, key := range []string{"work_id", "work_title", "work_language", "run_id", "imported_at", "source_blake3"} {
		if v, ok := meta[key]; ok {
			fmt.Printf("%s: %s\n", key, v)
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("osisdb %s (sqlite driver: %s)\n", version, store.DriverType())
	return nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("osisdb"),
		kong.Description("Streaming OSIS XML to SQLite importer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	kctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	kctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err = kctx.Run()
	kctx.FatalIfErrorf(err)
}
