package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const seedFetchTimeout = 30 * time.Second

// ImportSeed fetches a JSON array of records from url and bulk-inserts it,
// skipping ids that already exist. Callers treat any failure as non-fatal: the
// service keeps running on whatever catalog data it already has.
func ImportSeed(ctx context.Context, repo CatalogRepository, url string) (int, error) {
	if url == "" {
		return 0, errors.New("empty seed url")
	}

	ctx, cancel := context.WithTimeout(ctx, seedFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("seed fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("seed fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return 0, err
	}

	var recs []Record
	if err := json.Unmarshal(body, &recs); err != nil {
		return 0, fmt.Errorf("seed payload is not a record array: %w", err)
	}

	return repo.CreateMany(ctx, recs)
}

// SeedCatalog runs ImportSeed and logs the outcome. Degraded startup is
// deliberate: a missing seed never terminates the service.
func SeedCatalog(ctx context.Context, repo CatalogRepository, url string) {
	if url == "" {
		return
	}
	n, err := ImportSeed(ctx, repo, url)
	if err != nil {
		log.Printf("catalog seed skipped: %v", err)
		return
	}
	log.Printf("catalog seed imported %d records from %s", n, url)
}
