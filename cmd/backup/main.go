// Command backup takes and restores encrypted snapshots of the wishlist
// database.
//
//	backup snapshot
//	backup list
//	backup restore <key> [path]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukerupert/santaswishlist/internal/backup"
	"github.com/dukerupert/santaswishlist/internal/config"
	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/logging"
	"github.com/dukerupert/santaswishlist/internal/objectstore"
)

const usage = "usage: backup snapshot | list | restore <key> [path]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "backup: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.BackupBucket == "" || !cfg.S3.Configured() {
		return errors.New("WISHLIST_BACKUP_S3_BUCKET and S3 credentials are required")
	}
	if cfg.BackupPassphrase == "" {
		return errors.New("WISHLIST_BACKUP_PASSPHRASE is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := backup.NewManager(objectstore.NewClient(cfg.S3), cfg.BackupBucket, cfg.BackupPassphrase, logger)

	switch args[0] {
	case "snapshot":
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		key, err := m.Snapshot(ctx, db)
		if err != nil {
			return err
		}
		fmt.Println(key)

	case "list":
		objects, err := m.List(ctx)
		if err != nil {
			return err
		}
		for _, o := range objects {
			fmt.Printf("%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02 15:04:05"))
		}

	case "restore":
		if len(args) < 2 {
			return errors.New(usage)
		}
		dst := cfg.DatabaseURL
		if len(args) > 2 {
			dst = args[2]
		}
		return m.Restore(ctx, args[1], dst)

	default:
		return errors.New(usage)
	}
	return nil
}
