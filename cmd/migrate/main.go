// Command migrate manages the database schema of the challenge backend.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/dpnk/backend/internal/infrastructure/logger"
	"github.com/dpnk/backend/internal/infrastructure/migration"
	"github.com/dpnk/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("invalid arguments")

// env is what a command runs against. migrator is nil for offline commands.
type env struct {
	log      *zap.Logger
	source   fs.FS
	dir      string
	migrator *migration.Migrator
}

type command struct {
	args    string
	help    string
	offline bool
	run     func(e *env, args []string) error
}

var commands = map[string]command{
	"up":   {help: "Apply all pending migrations", run: func(e *env, _ []string) error { return e.migrator.Up() }},
	"down": {help: "Roll back all migrations", run: func(e *env, _ []string) error { return e.migrator.Down() }},
	"step": {args: "<n>", help: "Apply n migrations, negative n rolls back", run: func(e *env, args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return e.migrator.Steps(n)
	}},
	"goto": {args: "<version>", help: "Migrate up or down to version", run: func(e *env, args []string) error {
		v, err := intArg(args)
		if err != nil || v < 0 {
			return errors.Join(errUsage, err)
		}
		return e.migrator.GoTo(uint(v))
	}},
	"version": {help: "Show the applied version", run: func(e *env, _ []string) error {
		v, dirty, err := e.migrator.Version()
		if err != nil {
			return err
		}
		e.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"force": {args: "<version>", help: "Mark version as applied without running it", run: func(e *env, args []string) error {
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return e.migrator.Force(v)
	}},
	"drop": {args: "-confirm", help: "Drop every database object", run: func(e *env, args []string) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return fmt.Errorf("%w: drop needs -confirm", errUsage)
		}
		return e.migrator.Drop()
	}},
	"create": {args: "<name> [description]", help: "Write a new up/down migration pair", offline: true, run: func(e *env, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: migration name required", errUsage)
		}
		mf, err := migration.CreateMigration(e.dir, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		e.log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	}},
	"list": {help: "List the available migrations", offline: true, run: func(e *env, _ []string) error {
		infos, err := migration.DescribeMigrations(e.source)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("  %-40s %s\n", info.Name, info.Description)
		}
		return nil
	}},
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: number required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func main() {
	path := flag.String("path", "", "migrations directory; the embedded migrations by default")
	configFile := flag.String("config", "", "config file; config.toml is searched in ., /etc/dpnk and /app by default")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	name, args := flag.Arg(0), flag.Args()
	cmd, ok := commands[name]
	if !ok {
		usage()
		os.Exit(2)
	}
	if len(args) > 0 {
		args = args[1:]
	}

	log, closeLog, err := logger.New(logger.Config{Level: *logLevel, Format: "console", TimeLayout: time.DateTime})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	e := &env{log: log, source: migrations.FS, dir: defaultMigrationsPath}
	if *path != "" {
		e.source, e.dir = os.DirFS(*path), *path
	}

	if !cmd.offline {
		closeDB, err := e.connect(*configFile)
		if err != nil {
			log.Fatal("Database unavailable", zap.Error(err))
		}
		defer closeDB()
	}

	if err := cmd.run(e, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "usage: migrate %s %s\n", name, cmd.args)
		}
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

// connect opens the database from configuration and builds the migrator
func (e *env) connect(configFile string) (func(), error) {
	load := config.Load
	if configFile != "" {
		load = func() (*config.Config, error) { return config.LoadFile(configFile) }
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Database.Host, err)
	}
	e.migrator, err = migration.NewFromFS(db, e.source, e.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return func() {
		_ = e.migrator.Close()
		_ = db.Close()
	}, nil
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Do prace na kole schema migrations")
	fmt.Fprintln(out, "\nUsage: migrate [flags] <command> [arguments]\n\nCommands:")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(out, "  %-28s %s\n", strings.TrimSpace(name+" "+c.args), c.help)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nDatabase settings come from the config file or DPNK_DATABASE_* variables.")
}
