package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/memodeck/memodeck/internal/anki"
	"github.com/memodeck/memodeck/internal/config"
	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/fsrs"
	"github.com/memodeck/memodeck/internal/markdown"
	"github.com/memodeck/memodeck/internal/phase6"
	"github.com/memodeck/memodeck/internal/stats"
	"github.com/memodeck/memodeck/internal/storage"
	"github.com/memodeck/memodeck/internal/transfer"
)

func main() {
	flags := pflag.NewFlagSet("memodeck", pflag.ExitOnError)
	configPath := flags.String("config", "memodeck.yaml", "Path to the YAML config file")
	flags.String("db-path", "", "Path to the SQLite database file")
	flags.String("log-level", "", "Log level: debug, info, warn, error")

	importApkg := flags.String("import-apkg", "", "Import an Anki .apkg archive")
	importMD := flags.String("import-md", "", "Import Q:/A: markdown notes")
	importXML := flags.String("import-xml", "", "Import a Phase6 XML export")
	importCSV := flags.String("import-csv", "", "Import a Phase6 CSV export")
	importJSON := flags.String("import-json", "", "Import a JSON export into --deck")
	exportCSV := flags.String("export-csv", "", "Export --deck as CSV to the given file")
	exportJSON := flags.String("export-json", "", "Export --deck as JSON to the given file")
	deckName := flags.String("deck", "", "Deck name for import/export")
	showStats := flags.Bool("stats", false, "Print study statistics")
	review := flags.Bool("review", false, "Review due cards interactively")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.LogLevel)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Debug("database opened", "path", cfg.DBPath)

	params := fsrs.DefaultParams()
	params.DesiredRetention = cfg.DesiredRetention
	params.MaxInterval = cfg.MaxIntervalDays
	app := &app{db: db, engine: fsrs.NewEngine(params)}
	ctx := context.Background()

	switch {
	case *importApkg != "":
		err = app.importApkg(ctx, *importApkg)
	case *importMD != "":
		err = app.importMarkdown(ctx, *importMD, *deckName)
	case *importXML != "":
		err = app.importPhase6(ctx, *importXML, *deckName, true)
	case *importCSV != "":
		err = app.importPhase6(ctx, *importCSV, *deckName, false)
	case *importJSON != "":
		err = app.importJSON(ctx, *importJSON, *deckName)
	case *exportCSV != "":
		err = app.export(ctx, *exportCSV, *deckName, "csv")
	case *exportJSON != "":
		err = app.export(ctx, *exportJSON, *deckName, "json")
	case *showStats:
		err = app.stats(ctx)
	case *review:
		err = app.review(ctx)
	default:
		fmt.Fprintln(os.Stderr, "memodeck: no operation given\n\nFlags:")
		flags.PrintDefaults()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

type app struct {
	db     *storage.DB
	engine *fsrs.Engine
}

func (a *app) importApkg(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	backend, err := anki.DefaultBackend()
	if err != nil {
		return err
	}
	result := anki.NewImporter(backend).ImportFromApkg(data)
	return a.persist(ctx, result)
}

func (a *app) importMarkdown(ctx context.Context, path, deckName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	result := markdown.NewImporter().ImportFromText(string(data), deckName)
	return a.persist(ctx, result)
}

func (a *app) importPhase6(ctx context.Context, path, deckName string, xml bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	importer := phase6.NewImporter()
	var result domain.ImportResult
	if xml {
		result = importer.ImportFromXML(string(data), deckName)
	} else {
		result = importer.ImportFromCSV(string(data), deckName)
	}
	return a.persist(ctx, result)
}

func (a *app) importJSON(ctx context.Context, path, deckName string) error {
	if deckName == "" {
		return fmt.Errorf("--import-json requires --deck")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	deck, err := a.findOrCreateDeck(ctx, deckName)
	if err != nil {
		return err
	}
	cards, err := transfer.NewAdapter().ImportJSON(string(data), deck.ID)
	if err != nil {
		return err
	}
	for _, card := range cards {
		if err := a.db.SaveCard(ctx, card); err != nil {
			return err
		}
	}
	slog.Info("import finished", "deck", deck.Name, "cards", len(cards))
	return nil
}

func (a *app) export(ctx context.Context, path, deckName, format string) error {
	if deckName == "" {
		return fmt.Errorf("export requires --deck")
	}
	deck, err := a.findDeck(ctx, deckName)
	if err != nil {
		return err
	}
	cards, err := a.db.GetCardsByDeck(ctx, deck.ID)
	if err != nil {
		return err
	}

	adapter := transfer.NewAdapter()
	var out string
	if format == "json" {
		out, err = adapter.ExportJSON(cards, deck)
		if err != nil {
			return err
		}
	} else {
		out = adapter.ExportCSV(cards, deck)
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	slog.Info("export finished", "deck", deck.Name, "cards", len(cards), "file", path)
	return nil
}

func (a *app) stats(ctx context.Context) error {
	cards, err := a.db.GetAllCards(ctx)
	if err != nil {
		return err
	}

	s := stats.Calculate(cards, time.Now())
	fmt.Printf("Cards:          %d (%d new, %d learning, %d review)\n",
		s.TotalCards, s.NewCards, s.LearningCards, s.ReviewCards)
	fmt.Printf("Due now:        %d\n", s.DueCards)
	fmt.Printf("Reviewed:       %d today, %d this week\n", s.ReviewedToday, s.ReviewedWeek)
	fmt.Printf("Total reviews:  %d\n", s.TotalReviews)
	fmt.Printf("Retention rate: %.1f%%\n", s.RetentionRate)

	decks, err := a.db.GetAllDecks(ctx)
	if err != nil {
		return err
	}
	names := map[string]string{}
	for _, deck := range decks {
		names[deck.ID.String()] = deck.Name
	}
	for _, p := range stats.Progress(cards) {
		fmt.Printf("  %-20s %d/%d matured (%.0f%%)\n",
			names[p.DeckID.String()], p.Matured, p.Total, p.Percent)
	}
	return nil
}

// review walks the due cards one at a time, showing the projected
// intervals and applying the chosen rating.
func (a *app) review(ctx context.Context) error {
	now := time.Now()
	cards, err := a.db.GetDueCards(ctx, now, nil)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Println("Nothing due. Come back later.")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for i, card := range cards {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(cards), card.Front)
		fmt.Print("Press enter to show the answer... ")
		if _, err := reader.ReadString('\n'); err != nil {
			return nil
		}
		fmt.Printf("%s\n\n", card.Back)

		info := a.engine.SchedulingInfo(card, now)
		fmt.Printf("1) Again (%s)  2) Hard (%s)  3) Good (%s)  4) Easy (%s)  q) quit\n",
			info.Again.Interval, info.Hard.Interval, info.Good.Interval, info.Easy.Interval)

		rating, quit := readRating(reader)
		if quit {
			return nil
		}

		reviewedAt := time.Now()
		updated := a.engine.ReviewCard(card, rating, reviewedAt)
		if err := a.db.SaveCard(ctx, updated); err != nil {
			slog.Warn("failed to save review", "card", card.ID, "error", err)
			continue
		}
		log := a.engine.NewReviewLog(updated, rating, reviewedAt)
		if err := a.db.SaveReviewLog(ctx, log); err != nil {
			slog.Warn("failed to save review log", "card", card.ID, "error", err)
		}
	}
	fmt.Println("\nSession complete.")
	return nil
}

func readRating(reader *bufio.Reader) (domain.Rating, bool) {
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, true
		}
		line = strings.TrimSpace(line)
		if line == "q" {
			return 0, true
		}
		if n, err := strconv.Atoi(line); err == nil && domain.Rating(n).Valid() {
			return domain.Rating(n), false
		}
		fmt.Println("Enter 1-4 or q.")
	}
}

// persist stores an import result, reporting warnings as they were
// collected.
func (a *app) persist(ctx context.Context, result domain.ImportResult) error {
	for _, warning := range result.Warnings {
		slog.Warn(warning)
	}
	if !result.Success {
		return fmt.Errorf("import failed: %s", strings.Join(result.Errors, "; "))
	}

	for _, deck := range result.Decks {
		if err := a.db.SaveDeck(ctx, deck); err != nil {
			return err
		}
	}
	for _, card := range result.Cards {
		if err := a.db.SaveCard(ctx, card); err != nil {
			slog.Warn("failed to save card", "card", card.ID, "error", err)
		}
	}
	slog.Info("import finished", "decks", len(result.Decks), "cards", len(result.Cards))
	return nil
}

func (a *app) findDeck(ctx context.Context, name string) (domain.Deck, error) {
	decks, err := a.db.GetAllDecks(ctx)
	if err != nil {
		return domain.Deck{}, err
	}
	for _, deck := range decks {
		if deck.Name == name {
			return deck, nil
		}
	}
	return domain.Deck{}, fmt.Errorf("no deck named %q", name)
}

func (a *app) findOrCreateDeck(ctx context.Context, name string) (domain.Deck, error) {
	deck, err := a.findDeck(ctx, name)
	if err == nil {
		return deck, nil
	}
	deck = domain.NewDeck(name, "", time.Now())
	if err := a.db.SaveDeck(ctx, deck); err != nil {
		return domain.Deck{}, err
	}
	return deck, nil
}
