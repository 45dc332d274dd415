// Package publish writes the merged collection to its JSON artifact.
package publish

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cnwire/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var publishedRecords = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "cnwire_records_published",
	Help: "Records in the most recently published artifact",
})

// Encode renders records as the published JSON document: a two-space
// indented array with HTML escaping off so Chinese punctuation and URLs stay
// readable in the file. Equal collections encode to identical bytes, and an
// empty collection is an empty array, never null.
func Encode(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return buf.Bytes(), nil
}

// Write publishes records atomically: the document goes to a temp file next
// to the destination, gets synced, then renamed over it. Readers never see a
// partial document and a failing run leaves the previous artifact in place.
func Write(path string, records []models.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // cleans up failed attempts, no-op after rename
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp artifact: %w", err)
	}
	// the artifact is served to other processes, so don't keep CreateTemp's 0600
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}

	publishedRecords.Set(float64(len(records)))
	log.WithFields(log.Fields{"path": path, "records": len(records)}).Info("published artifact")
	return nil
}

// ReadSnapshot loads a previously published artifact. A missing file is a
// clean empty result, so first runs and the replace policy behave alike.
func ReadSnapshot(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return records, nil
}
