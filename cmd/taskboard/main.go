package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ldi/taskboard/internal/board"
	"github.com/ldi/taskboard/internal/config"
	"github.com/ldi/taskboard/internal/db"
	"github.com/ldi/taskboard/internal/mcp"
	"github.com/ldi/taskboard/internal/server"
	"github.com/ldi/taskboard/internal/ui"
)

func main() {
	var command string
	var args []string

	if len(os.Args) < 2 {
		selected, err := ui.RunMenu()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running menu: %v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			os.Exit(0)
		}
		command = selected
		args = []string{}
	} else {
		command = os.Args[1]
		args = os.Args[2:]
	}

	var err error
	switch command {
	case "init":
		err = runInit(args)
	case "serve":
		err = runServe(args)
	case "mcp":
		err = runMCP(args)
	case "list":
		err = runList(args)
	case "stats":
		err = runStats(args)
	case "export":
		err = runExport(args)
	case "import":
		err = runImport(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func openDB(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := database.Init(context.Background()); err != nil {
		database.Close()
		return nil, err
	}

	if cfg.AutoSnapshot {
		database.EnableAutoSnapshot(cfg.SnapshotPath)
	}

	return database, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	boardDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(boardDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", boardDir, err)
	}
	fmt.Printf("✓ Created %s/ directory\n", boardDir)

	gitignorePath := filepath.Join(boardDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("taskboard.db*\n"), 0644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	fmt.Printf("✓ Created %s\n", gitignorePath)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Printf("✓ Initialized database at %s\n", cfg.DBPath)

	// Restore from an existing snapshot if there is one.
	if _, err := os.Stat(cfg.SnapshotPath); err == nil {
		if err := database.ImportSnapshot(ctx, cfg.SnapshotPath); err != nil {
			return fmt.Errorf("failed to import snapshot: %w", err)
		}
		fmt.Printf("✓ Imported snapshot from %s\n", cfg.SnapshotPath)
	}

	fmt.Println("✓ Taskboard initialized successfully")
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := board.NewService(database)
	svc.Subscribe(board.LogSubscriber(logger))

	srv := server.NewServer(svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := board.NewService(database)
	svc.Subscribe(board.LogSubscriber(newLogger(cfg)))

	s := mcp.NewServer(svc)
	return mcp.Serve(s)
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	statusFilter := fs.String("status", "", "Filter by status (TODO, IN_PROGRESS, DONE)")
	priorityFilter := fs.String("priority", "", "Filter by priority (LOW, MEDIUM, HIGH)")
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := board.NewService(database)
	tasks, err := svc.List(context.Background(), board.Filters{
		Status:   *statusFilter,
		Priority: *priorityFilter,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-40s %-12s %-10s\n", "ID", "TITLE", "STATUS", "PRIORITY")
	fmt.Println("----------------------------------------------------------------------")
	for _, t := range tasks {
		fmt.Printf("%-5d %-40s %-12s %-10s\n", t.ID, t.Title, t.Status, t.Priority)
	}
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := board.NewService(database)
	stats, err := svc.Statistics(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("Taskboard Status")
	fmt.Println("================")
	fmt.Printf("Total Tasks: %d\n", stats.Total)

	fmt.Println("\nBy Status:")
	fmt.Printf("  To Do:       %d\n", stats.ByStatus["TODO"])
	fmt.Printf("  In Progress: %d\n", stats.ByStatus["IN_PROGRESS"])
	fmt.Printf("  Done:        %d\n", stats.ByStatus["DONE"])

	fmt.Println("\nBy Priority:")
	fmt.Printf("  Low:    %d\n", stats.ByPriority["LOW"])
	fmt.Printf("  Medium: %d\n", stats.ByPriority["MEDIUM"])
	fmt.Printf("  High:   %d\n", stats.ByPriority["HIGH"])
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		return err
	}

	if err := database.ExportSnapshot(ctx, cfg.SnapshotPath); err != nil {
		return err
	}
	fmt.Printf("✓ Exported snapshot to %s\n", cfg.SnapshotPath)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		return err
	}

	if err := database.ImportSnapshot(ctx, cfg.SnapshotPath); err != nil {
		return err
	}
	fmt.Printf("✓ Imported snapshot from %s\n", cfg.SnapshotPath)
	return nil
}
