// Command opc-admin manages the database schema.
//
//	opc-admin init    create or update all tables, then verify them
//	opc-admin drop    drop all tables after an interactive "yes"
//	opc-admin stats   print customer statistics as JSON
//
// Connection settings come from the same environment (and .env) as the
// server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/repo"
	"github.com/tbourn/opc-agent/internal/sysutil"
)

const dropPrompt = "确认删除所有数据表？(yes/no): "

const usage = `usage: opc-admin <command>

commands:
  init    create or update all tables
  drop    drop all tables (asks for confirmation)
  stats   print customer statistics
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd := strings.ToLower(args[0])
	switch cmd {
	case "init", "drop", "stats":
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	sysutil.InitLogger(cfg.LogLevel, true, stderr)

	db, err := open(cfg)
	if err != nil {
		log.Error().Err(err).Msg("open database")
		return 1
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch cmd {
	case "init":
		err = initSchema(db, stdout)
	case "drop":
		err = dropSchema(db, stdin, stdout)
	case "stats":
		err = printStats(db, stdout)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("failed")
		return 1
	}
	return 0
}

func open(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.Path
	if cfg.Database.Driver == repo.DriverPostgres {
		dsn = cfg.Database.DSN
	}
	return repo.Open(repo.Options{
		Driver:   cfg.Database.Driver,
		DSN:      dsn,
		LogLevel: logger.Silent,
	})
}

func initSchema(db *gorm.DB, out io.Writer) error {
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	missing, err := repo.MissingTables(db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("tables missing after migration: %s", strings.Join(missing, ", "))
	}
	fmt.Fprintln(out, "✅ 数据库初始化完成")
	return nil
}

func dropSchema(db *gorm.DB, in io.Reader, out io.Writer) error {
	ok, err := sysutil.Confirm(in, out, dropPrompt)
	if errors.Is(err, sysutil.ErrNoAnswer) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "已取消")
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "已取消")
		return nil
	}
	if err := repo.DropAll(db); err != nil {
		return err
	}
	fmt.Fprintln(out, "✅ 所有数据表已删除")
	return nil
}

func printStats(db *gorm.DB, out io.Writer) error {
	st, err := repo.Stats(context.Background(), db)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
