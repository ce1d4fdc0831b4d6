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
	"text/tabwriter"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/app"
	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/slot"
	"github.com/MrSnakeDoc/bookmarker/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
	"github.com/MrSnakeDoc/bookmarker/internal/version"
)

const usage = "expected one of 'list', 'add', 'edit', 'rm', 'stats', 'import', 'export', 'slots' or 'version' subcommands"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one subcommand and returns the process exit code. Every
// failure returns instead of exiting so the deferred closes still run.
func run(args []string) int {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	addName := addCmd.String("name", "", "bookmark name")
	addURL := addCmd.String("url", "", "bookmark URL")

	editCmd := flag.NewFlagSet("edit", flag.ExitOnError)
	editID := editCmd.Int64("id", 0, "bookmark id")
	editName := editCmd.String("name", "", "new name")
	editURL := editCmd.String("url", "", "new URL")

	rmCmd := flag.NewFlagSet("rm", flag.ExitOnError)
	rmID := rmCmd.Int64("id", 0, "bookmark id")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Homepage bookmarks.yaml to import")
	importAgain := importCmd.Bool("again", false, "also import entries that were imported and deleted before")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	slotsCmd := flag.NewFlagSet("slots", flag.ExitOnError)

	if len(args) < 1 {
		fmt.Println(usage)
		return 1
	}
	if args[0] == "version" {
		fmt.Println("bookmarker-cli", version.String())
		return 0
	}

	cfg := config.Load()
	log.SetOutput(os.Stderr)
	lg := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()
	backend, err := app.OpenBackend(ctx, cfg, lg)
	if err != nil {
		log.Printf("Failed to open %s storage: %v", cfg.Storage, err)
		return 1
	}
	defer utils.MustClose(backend, lg, cfg.Storage)

	store := bookmarks.New(backend.Slot,
		bookmarks.WithKey(cfg.SlotKey),
		bookmarks.WithLogger(lg),
	)

	switch args[0] {
	case "list":
		_ = listCmd.Parse(args[1:])
		printList(store.List(ctx), cfg.Location())
	case "add":
		_ = addCmd.Parse(args[1:])
		if *addName == "" || *addURL == "" {
			addCmd.PrintDefaults()
			return 1
		}
		items, err := store.Create(ctx, *addName, *addURL)
		if err != nil {
			return mutationFailed("add", err)
		}
		last := items[len(items)-1]
		fmt.Printf("Added %d %s\n", last.ID, last.URL)
	case "edit":
		_ = editCmd.Parse(args[1:])
		if *editID == 0 || *editName == "" || *editURL == "" {
			editCmd.PrintDefaults()
			return 1
		}
		if _, err := store.Update(ctx, *editID, *editName, *editURL); err != nil {
			return mutationFailed("edit", err)
		}
		fmt.Printf("Updated %d\n", *editID)
	case "rm":
		_ = rmCmd.Parse(args[1:])
		if *rmID == 0 {
			rmCmd.PrintDefaults()
			return 1
		}
		if _, err := store.Delete(ctx, *rmID); err != nil {
			return mutationFailed("rm", err)
		}
		fmt.Printf("Removed %d\n", *rmID)
	case "stats":
		_ = statsCmd.Parse(args[1:])
		today := time.Now().In(cfg.Location())
		coll := store.List(ctx)
		fmt.Printf("total: %d\nadded today (%s): %d\n",
			len(coll), today.Format(time.DateOnly), coll.AddedOn(today))
	case "import":
		_ = importCmd.Parse(args[1:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			return 1
		}
		opts := []homepage.ImporterOption{
			homepage.WithHistory(homepage.NewHistory(backend.Slot, homepage.HistoryKey(cfg.SlotKey))),
		}
		if *importAgain {
			opts = append(opts, homepage.ReimportAll())
		}
		res, err := homepage.NewImporter(store, lg, opts...).ImportFile(ctx, *importFile)
		if err != nil {
			log.Printf("Import failed after %d bookmarks: %v", res.Created, err)
			return 1
		}
		log.Printf("Imported %d bookmarks, skipped %d", res.Created, res.Skipped)
	case "export":
		_ = exportCmd.Parse(args[1:])
		if err := writeExport(os.Stdout, store.List(ctx)); err != nil {
			log.Printf("Encode failed: %v", err)
			return 1
		}
	case "slots":
		_ = slotsCmd.Parse(args[1:])
		lister, ok := backend.Slot.(slot.Lister)
		if !ok {
			log.Printf("%s storage cannot list its slots", cfg.Storage)
			return 1
		}
		names, err := lister.Names(ctx)
		if err != nil {
			log.Printf("List slots failed: %v", err)
			return 1
		}
		for _, name := range names {
			fmt.Println(name)
		}
	default:
		fmt.Println(usage)
		return 1
	}
	return 0
}

func printList(items domain.Collection, loc *time.Location) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tURL\tADDED")
	for _, b := range items.ByRecent() {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, b.Name, b.URL, b.Date.In(loc).Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func writeExport(w io.Writer, items domain.Collection) error {
	if items == nil {
		items = domain.Collection{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}

func mutationFailed(op string, err error) int {
	switch {
	case errors.Is(err, bookmarks.ErrNotFound):
		log.Printf("%s: bookmark not found", op)
	case errors.Is(err, bookmarks.ErrUnavailable):
		log.Printf("%s: storage unavailable, nothing was changed: %v", op, err)
	default:
		log.Printf("%s failed: %v", op, err)
	}
	return 1
}
