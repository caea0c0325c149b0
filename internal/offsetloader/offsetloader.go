// Package offsetloader fetches the offset-variant list from a list of
// candidate URLs, caching the winning payload to disk and falling back
// to the on-disk cache, and finally the compiled-in seed list, on
// failure. Grounded on original_source/src-tauri/src/offset_manager.rs.
package offsetloader

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hollowpeak/tracker-relay/internal/events"
	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/offsets"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

// fetchTimeout bounds each candidate URL's request, matching
// offset_manager.rs's 5-second reqwest client timeout.
const fetchTimeout = 5 * time.Second

// Loader fetches and caches the offset-variant list.
type Loader struct {
	URLs       []string
	CachePath  string
	Bus        *events.Bus
	HTTPClient *http.Client
}

// New builds a Loader. urls is tried in order; cachePath is where the
// last successful fetch is persisted and re-read on failure.
func New(urls []string, cachePath string, bus *events.Bus) *Loader {
	return &Loader{
		URLs:       urls,
		CachePath:  cachePath,
		Bus:        bus,
		HTTPClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Load tries every configured URL in order, caching the first success.
// On total failure it logs, emits a report-error-toast event, and falls
// back to the on-disk cache; if that too is unreadable it falls back to
// the compiled-in seed list. This never returns an error: an empty or
// degraded variant list is the caller's (the collector's) problem, not
// a startup failure (§9 Open Question b).
func (l *Loader) Load() []types.OffsetVariant {
	log := logging.Get()

	if variants, err := l.fetchFromRemotes(); err == nil {
		if err := l.saveCache(variants); err != nil {
			log.Warn().Err(err).Msg("failed to persist offset cache")
		}
		return variants
	} else {
		log.Warn().Err(err).Msg("all offset-source URLs failed, falling back to local cache")
		l.emitToast("offset sync failed")
	}

	if variants, err := l.loadCache(); err == nil {
		return variants
	} else {
		log.Warn().Err(err).Msg("no usable offset cache, falling back to built-in variants")
	}

	return offsets.Builtin
}

func (l *Loader) fetchFromRemotes() ([]types.OffsetVariant, error) {
	var lastErr error
	for _, url := range l.URLs {
		logging.Get().Info().Str("url", url).Msg("fetching offset variants")
		variants, err := l.fetchOne(url)
		if err == nil {
			return variants, nil
		}
		lastErr = err
		logging.Get().Warn().Str("url", url).Err(err).Msg("offset fetch attempt failed")
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no offset source URLs configured")
	}
	return nil, fmt.Errorf("all offset sources failed: %w", lastErr)
}

func (l *Loader) fetchOne(url string) ([]types.OffsetVariant, error) {
	resp, err := l.HTTPClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var variants []types.OffsetVariant
	if err := json.Unmarshal(body, &variants); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return variants, nil
}

func (l *Loader) saveCache(variants []types.OffsetVariant) error {
	data, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	return os.WriteFile(l.CachePath, data, 0o644)
}

func (l *Loader) loadCache() ([]types.OffsetVariant, error) {
	data, err := os.ReadFile(l.CachePath)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var variants []types.OffsetVariant
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return variants, nil
}

func (l *Loader) emitToast(message string) {
	if l.Bus == nil {
		return
	}
	l.Bus.Emit(events.KindErrorToast, message)
}

// DefaultURLs returns the candidate list in try-order: the
// TRACKER_RELAY_DEV_OFFSET_URL value, if set, followed by the operator-
// supplied extras. No URL is compiled in. Mirrors get_remote_urls's debug-build
// localhost insertion via the TRACKER_RELAY_DEV_OFFSET_URL env var
// rather than a compile-time cfg, since Go binaries aren't built per
// debug/release profile the way the original crate was.
func DefaultURLs(extra []string) []string {
	var urls []string
	if dev := os.Getenv("TRACKER_RELAY_DEV_OFFSET_URL"); dev != "" {
		urls = append(urls, dev)
	}
	urls = append(urls, extra...)
	return urls
}

// SplitURLs trims and drops blanks from a repeatable --offset-url flag
// value list.
func SplitURLs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
