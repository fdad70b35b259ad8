package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
)

// IndexFile is the name of the persisted index inside the cache directory.
const IndexFile = "index.json"

var catalogPattern = regexp.MustCompile(`<a href="\w+([ns]\d\d[ew]\d\d\d)\.zip">`)

// Index is the set of tiles known to exist upstream.
type Index map[ID]struct{}

// NewIndex returns an index holding ids.
func NewIndex(ids ...ID) Index {
	ix := make(Index, len(ids))
	for _, id := range ids {
		ix[id] = struct{}{}
	}
	return ix
}

// Has reports whether id exists upstream.
func (ix Index) Has(id ID) bool {
	_, ok := ix[id]
	return ok
}

// Len returns the number of tiles in the index.
func (ix Index) Len() int {
	return len(ix)
}

// IDs returns the tile ids in sorted order.
func (ix Index) IDs() []ID {
	ids := make([]ID, 0, len(ix))
	for id := range ix {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseCatalog extracts the tile ids linked from an HTML directory listing.
func ParseCatalog(html []byte) Index {
	ix := Index{}
	for _, m := range catalogPattern.FindAllSubmatch(html, -1) {
		ix[ID(m[1])] = struct{}{}
	}
	return ix
}

// LoadIndex reads a persisted index.
func LoadIndex(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ids []ID
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", path, err)
	}
	return NewIndex(ids...), nil
}

// Save writes the index as a JSON array.
func (ix Index) Save(path string) error {
	data, err := json.MarshalIndent(ix.IDs(), "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// EnsureIndex returns the index persisted at path. If there is none, it
// downloads the catalog at catalogURL, persists the parsed index and returns
// it. Download failures are returned and nothing is written.
func EnsureIndex(ctx context.Context, path string, fetcher *Fetcher, catalogURL string, logger zerolog.Logger) (Index, error) {
	ix, err := LoadIndex(path)
	if err == nil {
		logger.Debug().Str("file", path).Int("tiles", ix.Len()).Msg("loaded index")
		return ix, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	logger.Info().Str("file", path).Str("url", catalogURL).Msg("downloading")
	html, err := fetcher.Get(ctx, catalogURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download tile catalog: %w", err)
	}
	ix = ParseCatalog(html)
	if err := ix.Save(path); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}
	return ix, nil
}
