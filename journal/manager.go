// Package journal keeps diary entries in one growing text object per
// calendar month and reads them back as a single concatenated corpus.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aschepis/backscratcher/diary/blobstore"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL bounds how long a concatenated corpus is reused.
const DefaultCacheTTL = 300 * time.Second

// ErrEmptyEntry is returned when the text to append is blank.
var ErrEmptyEntry = errors.New("journal: entry text is empty")

// FileHandle identifies a period file in the store.
type FileHandle struct {
	ID      string
	Name    string
	Period  Period
	Created bool
}

// Confirmation describes a successful append.
type Confirmation struct {
	File   FileHandle
	Header string
	At     time.Time
	Bytes  int
}

// Corpus is the concatenation of every readable period file.
type Corpus struct {
	Text      string
	Files     []string
	Skipped   []string
	FetchedAt time.Time
}

// Empty reports whether the corpus holds no entry text.
func (c Corpus) Empty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Options configure a Manager.
type Options struct {
	// Folder is the container holding the period files.
	Folder string
	// CacheTTL defaults to DefaultCacheTTL; negative disables caching.
	CacheTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager appends to and reads the monthly journal files in one folder.
//
// Appends are read-full, concatenate, write-full with no version check, so
// concurrent writers in different processes can lose each other's entries.
type Manager struct {
	store  blobstore.Store
	folder string
	cache  *Cache
	now    func() time.Time
	logger zerolog.Logger
}

// NewManager creates a Manager over store.
func NewManager(store blobstore.Store, opts Options, logger zerolog.Logger) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &Manager{
		store:  store,
		folder: opts.Folder,
		cache:  NewCache(ttl, now),
		now:    now,
		logger: logger.With().Str("component", "journal").Logger(),
	}
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.now()
}

// FindOrCreatePeriodFile looks the period file up by exact name and creates
// an empty one if none exists.
func (m *Manager) FindOrCreatePeriodFile(ctx context.Context, period Period) (FileHandle, error) {
	name := period.FileName()
	if h, ok, err := m.findPeriodFile(ctx, period); err != nil || ok {
		return h, err
	}

	id, err := m.store.Create(ctx, name, m.folder, nil)
	if errors.Is(err, blobstore.ErrExists) {
		// Lost a creation race; use the winner's object.
		h, ok, err := m.findPeriodFile(ctx, period)
		if err != nil {
			return FileHandle{}, err
		}
		if !ok {
			return FileHandle{}, fmt.Errorf("journal: %s exists but is not listed", name)
		}
		return h, nil
	}
	if err != nil {
		return FileHandle{}, fmt.Errorf("journal: create %s: %w", name, err)
	}

	m.logger.Info().Str("file", name).Str("folder", m.folder).Msg("Created period file")
	m.cache.InvalidateContainer(m.folder)
	return FileHandle{ID: id, Name: name, Period: period, Created: true}, nil
}

func (m *Manager) findPeriodFile(ctx context.Context, period Period) (FileHandle, bool, error) {
	name := period.FileName()
	objs, err := m.store.List(ctx, blobstore.Query{Parent: m.folder, Name: name})
	if err != nil {
		return FileHandle{}, false, fmt.Errorf("journal: look up %s: %w", name, err)
	}
	if len(objs) == 0 {
		return FileHandle{}, false, nil
	}
	if len(objs) > 1 {
		m.logger.Warn().Str("file", name).Int("count", len(objs)).Msg("Duplicate period files, using the first")
	}
	return FileHandle{ID: objs[0].ID, Name: name, Period: period}, true, nil
}

// AppendEntry appends text under a timestamp header to the period file for
// at. The corpus cache is invalidated before returning.
func (m *Manager) AppendEntry(ctx context.Context, at time.Time, text string) (*Confirmation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyEntry
	}

	handle, err := m.FindOrCreatePeriodFile(ctx, PeriodOf(at))
	if err != nil {
		return nil, err
	}

	existing, err := m.store.ReadFull(ctx, handle.ID)
	if err != nil {
		return nil, fmt.Errorf("journal: read %s: %w", handle.Name, asUnavailable("read", handle.Name, err))
	}

	updated := AppendBlock(string(existing), at, text)
	if err := m.store.UpdateFull(ctx, handle.ID, []byte(updated)); err != nil {
		return nil, fmt.Errorf("journal: write %s: %w", handle.Name, asUnavailable("update", handle.Name, err))
	}
	m.cache.InvalidateContainer(m.folder)

	m.logger.Debug().
		Str("file", handle.Name).
		Int("previous_bytes", len(existing)).
		Int("bytes", len(updated)).
		Msg("Entry appended")

	return &Confirmation{
		File:   handle,
		Header: FormatHeader(at),
		At:     at,
		Bytes:  len(updated),
	}, nil
}

// ReadAllEntries concatenates every period file in name order. Objects that
// cannot be read or are not valid UTF-8 are skipped and listed in
// Corpus.Skipped. Only a failed listing is returned as an error.
func (m *Manager) ReadAllEntries(ctx context.Context) (Corpus, error) {
	q := blobstore.Query{Parent: m.folder, Prefix: FilePrefix}
	key := CacheKey{Container: m.folder, Query: q.String()}
	if corpus, ok := m.cache.Get(key); ok {
		m.logger.Debug().Int("files", len(corpus.Files)).Msg("Corpus cache hit")
		return corpus, nil
	}

	objs, err := m.store.List(ctx, q)
	if err != nil {
		return Corpus{}, fmt.Errorf("journal: list period files: %w", err)
	}
	objs = periodObjects(objs)

	corpus := Corpus{FetchedAt: m.now()}
	parts := make([]string, 0, len(objs))
	for _, obj := range objs {
		body, err := m.store.ReadFull(ctx, obj.ID)
		if err != nil {
			m.logger.Warn().Err(err).Str("file", obj.Name).Msg("Skipping unreadable period file")
			corpus.Skipped = append(corpus.Skipped, obj.Name)
			continue
		}
		if !utf8.Valid(body) {
			m.logger.Warn().Str("file", obj.Name).Msg("Skipping period file with invalid UTF-8")
			corpus.Skipped = append(corpus.Skipped, obj.Name)
			continue
		}
		text := strings.TrimSpace(string(body))
		if text == "" {
			continue
		}
		parts = append(parts, text)
		corpus.Files = append(corpus.Files, obj.Name)
	}
	corpus.Text = strings.Join(parts, Separator)

	if len(corpus.Skipped) == 0 {
		m.cache.Put(key, corpus)
	}
	m.logger.Debug().Int("files", len(corpus.Files)).Int("skipped", len(corpus.Skipped)).Int("bytes", len(corpus.Text)).Msg("Corpus loaded")
	return corpus, nil
}

// Periods lists the months that have a period file, oldest first.
func (m *Manager) Periods(ctx context.Context) ([]Period, error) {
	objs, err := m.store.List(ctx, blobstore.Query{Parent: m.folder, Prefix: FilePrefix})
	if err != nil {
		return nil, fmt.Errorf("journal: list period files: %w", err)
	}
	objs = periodObjects(objs)
	out := make([]Period, 0, len(objs))
	for _, obj := range objs {
		p, _ := ParsePeriod(obj.Name)
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// periodObjects keeps well-formed period file names, sorted by name.
func periodObjects(objs []blobstore.Object) []blobstore.Object {
	out := make([]blobstore.Object, 0, len(objs))
	for _, obj := range objs {
		if _, ok := ParsePeriod(obj.Name); ok {
			out = append(out, obj)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// asUnavailable marks a not-found during append as a store failure; the
// file was just listed, so its disappearance is not a caller error.
func asUnavailable(op, name string, err error) error {
	if blobstore.IsUnavailable(err) {
		return err
	}
	return blobstore.Unavailable(op, name, err)
}
