package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masalahub/kitchenplan/internal/config"
	"github.com/masalahub/kitchenplan/internal/snapshot"
	"github.com/masalahub/kitchenplan/internal/storage"
	"github.com/masalahub/kitchenplan/pkg/logger"
)

// storeFromConfig builds the object storage client from the environment
// (STORAGE_*). Every exports command goes through here.
func storeFromConfig() (storage.ObjectStorage, error) {
	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("plan export requires STORAGE_ENABLED=true")
	}

	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	return store, nil
}

// runExport computes a plan from a CSV snapshot and uploads it to the
// configured S3-compatible bucket.
func runExport(c *cli.Context) error {
	store, err := storeFromConfig()
	if err != nil {
		return err
	}

	items, err := computeFromDir(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := snapshot.WritePlanCSV(&buf, items); err != nil {
		return fmt.Errorf("failed to encode plan csv: %w", err)
	}

	key := fmt.Sprintf("plans/%s.csv", time.Now().Format("20060102"))
	if err := store.UploadObject(c.Context, key, buf.Bytes()); err != nil {
		return err
	}

	logger.Log.Info().Str("key", key).Int("items", len(items)).Msg("plan exported")
	return nil
}

// runExportList prints the plan CSVs already uploaded to object storage.
func runExportList(c *cli.Context) error {
	store, err := storeFromConfig()
	if err != nil {
		return err
	}

	exports, err := store.ListObjects(c.Context, "plans/")
	if err != nil {
		return err
	}

	if len(exports) == 0 {
		fmt.Fprintln(os.Stdout, "no exported plans found")
		return nil
	}

	for _, obj := range exports {
		fmt.Fprintf(os.Stdout, "%s\t%d\n", obj.Key, obj.Size)
	}

	return nil
}

// runExportFetch downloads one previously exported plan CSV.
func runExportFetch(c *cli.Context) error {
	store, err := storeFromConfig()
	if err != nil {
		return err
	}

	key := c.String("key")
	dest := c.String("dest")
	if dest == "" {
		dest = filepath.Base(key)
	}

	if err := store.DownloadObject(c.Context, key, dest); err != nil {
		return err
	}

	logger.Log.Info().Str("key", key).Str("dest", dest).Msg("plan export downloaded")
	return nil
}
