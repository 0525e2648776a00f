package conversations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/diary/blobstore"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Manager creates, loads and appends to threads in one folder.
//
// AppendMessage re-reads the thread right before writing it back, but there
// is no version check, so a concurrent writer can still lose an update.
type Manager struct {
	store  blobstore.Store
	folder string
	now    func() time.Time
	logger zerolog.Logger
}

// NewManager creates a thread Manager. now defaults to time.Now.
func NewManager(store blobstore.Store, folder string, now func() time.Time, logger zerolog.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:  store,
		folder: folder,
		now:    now,
		logger: logger.With().Str("component", "conversations").Logger(),
	}
}

// CreateThread returns the thread named after title, creating it if needed.
// Creating a title that already exists reuses the existing thread.
func (m *Manager) CreateThread(ctx context.Context, title string) (Handle, error) {
	name := SanitizeTitle(title)
	if h, ok, err := m.find(ctx, name); err != nil || ok {
		if ok {
			m.logger.Debug().Str("thread", name).Msg("Reusing existing thread")
		}
		return h, err
	}

	data, err := Encode(&Thread{Name: name, Title: strings.TrimSpace(title)})
	if err != nil {
		return Handle{}, err
	}
	id, err := m.store.Create(ctx, ObjectName(name), m.folder, data)
	if errors.Is(err, blobstore.ErrExists) {
		h, ok, err := m.find(ctx, name)
		if err != nil {
			return Handle{}, err
		}
		if !ok {
			return Handle{}, fmt.Errorf("thread %s exists but is not listed", name)
		}
		return h, nil
	}
	if err != nil {
		return Handle{}, fmt.Errorf("create thread %s: %w", name, err)
	}

	m.logger.Info().Str("thread", name).Msg("Created thread")
	return Handle{Name: name, ID: id}, nil
}

// Find looks a thread up by name or title.
func (m *Manager) Find(ctx context.Context, name string) (Handle, bool, error) {
	return m.find(ctx, SanitizeTitle(name))
}

func (m *Manager) find(ctx context.Context, name string) (Handle, bool, error) {
	objs, err := m.store.List(ctx, blobstore.Query{Parent: m.folder, Name: ObjectName(name)})
	if err != nil {
		return Handle{}, false, fmt.Errorf("look up thread %s: %w", name, err)
	}
	if len(objs) == 0 {
		return Handle{}, false, nil
	}
	return Handle{Name: name, ID: objs[0].ID}, true, nil
}

// ListThreads returns thread names without the prefix, sorted
// case-insensitively.
func (m *Manager) ListThreads(ctx context.Context) ([]string, error) {
	objs, err := m.store.List(ctx, blobstore.Query{Parent: m.folder, Prefix: ThreadPrefix})
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	names := lo.FilterMap(objs, func(obj blobstore.Object, _ int) (string, bool) {
		name := strings.TrimPrefix(obj.Name, ThreadPrefix)
		return name, name != ""
	})
	sort.SliceStable(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names, nil
}

// LoadThread reads a thread. A missing or corrupt thread loads as an empty
// thread bound to name; only store failures are returned.
func (m *Manager) LoadThread(ctx context.Context, name string) (*Thread, error) {
	name = SanitizeTitle(name)
	h, ok, err := m.find(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Thread{Name: name, Messages: []Message{}}, nil
	}
	return m.read(ctx, h)
}

// read loads the thread behind h, degrading a missing or corrupt object to
// an empty thread.
func (m *Manager) read(ctx context.Context, h Handle) (*Thread, error) {
	data, err := m.store.ReadFull(ctx, h.ID)
	if errors.Is(err, blobstore.ErrNotFound) {
		return &Thread{Name: h.Name, Messages: []Message{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read thread %s: %w", h.Name, err)
	}
	thread, err := Decode(h.Name, data)
	if err != nil {
		m.logger.Warn().Err(err).Str("thread", h.Name).Msg("Thread is corrupt, starting fresh")
		return &Thread{Name: h.Name, Messages: []Message{}}, nil
	}
	return thread, nil
}

// AppendMessage re-reads the thread, appends a timestamped message and
// writes the whole thread back.
func (m *Manager) AppendMessage(ctx context.Context, h Handle, role Role, content string) (*Thread, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("append to thread %s: unknown role %q", h.Name, role)
	}
	thread, err := m.read(ctx, h)
	if err != nil {
		return nil, err
	}
	thread.Messages = append(thread.Messages, Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		Timestamp: m.now().UTC(),
	})
	if err := m.write(ctx, h, thread); err != nil {
		return nil, err
	}
	m.logger.Debug().Str("thread", h.Name).Str("role", string(role)).Int("messages", len(thread.Messages)).Msg("Message appended")
	return thread, nil
}

// SaveThread overwrites the stored thread with thread.
func (m *Manager) SaveThread(ctx context.Context, h Handle, thread *Thread) error {
	for i, msg := range thread.Messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("save thread %s: message %d has unknown role %q", h.Name, i, msg.Role)
		}
	}
	return m.write(ctx, h, thread)
}

// ClearThread empties the message list, keeping the thread itself.
func (m *Manager) ClearThread(ctx context.Context, h Handle) error {
	thread, err := m.read(ctx, h)
	if err != nil {
		return err
	}
	thread.Messages = []Message{}
	if err := m.write(ctx, h, thread); err != nil {
		return err
	}
	m.logger.Info().Str("thread", h.Name).Msg("Thread cleared")
	return nil
}

func (m *Manager) write(ctx context.Context, h Handle, thread *Thread) error {
	t := *thread
	t.Name = h.Name
	data, err := Encode(&t)
	if err != nil {
		return err
	}
	if err := m.store.UpdateFull(ctx, h.ID, data); err != nil {
		return fmt.Errorf("write thread %s: %w", h.Name, err)
	}
	return nil
}
