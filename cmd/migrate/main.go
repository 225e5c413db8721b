package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rotchain-bot/internal/db"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	cmdUp      = "up"
	cmdDown    = "down"
	cmdVersion = "version"
	usage      = "usage: go run ./cmd/migrate [up|down|version] [steps]"
)

var (
	loadEnvFunc     = godotenv.Load
	migrateUpFunc   = db.MigrateUp
	migrateDownFunc = db.MigrateDown
	versionFunc     = db.MigrationVersion
)

func main() {
	_ = loadEnvFunc()

	if err := run(context.Background(), os.Args[1:], os.Getenv("DATABASE_URL")); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context, args []string, dsn string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	if strings.TrimSpace(dsn) == "" {
		return errors.New("DATABASE_URL is required")
	}

	switch args[0] {
	case cmdUp:
		if err := migrateUpFunc(ctx, dsn); err != nil {
			return err
		}
		logrus.Info("migrations up complete")
	case cmdDown:
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid down steps: %q", args[1])
			}
			steps = n
		}
		if err := migrateDownFunc(ctx, dsn, steps); err != nil {
			return err
		}
		logrus.Infof("migrations down complete (%d rolled back)", steps)
	case cmdVersion:
		version, err := versionFunc(ctx, dsn)
		if err != nil {
			return err
		}
		if version == 0 {
			logrus.Info("no migrations applied")
			return nil
		}
		logrus.Infof("current version: %d", version)
	default:
		return fmt.Errorf("unknown command %q. %s", args[0], usage)
	}
	return nil
}
