package blobstore

import (
	"context"
	"encoding/base64"
	"errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"github.com/rs/zerolog"
)

const (
	parentTag = "p"
	nameTag   = "n"
	keySep    = "."
)

// DiskvStore keeps every object as a file under basePath, one directory per
// parent container. The object id is the diskv key.
type DiskvStore struct {
	d      *diskv.Diskv
	logger zerolog.Logger
}

// NewDiskvStore opens (or lazily creates) a diskv-backed store at basePath.
func NewDiskvStore(basePath string, logger zerolog.Logger) *DiskvStore {
	return &DiskvStore{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		logger: logger.With().Str("component", "diskv_store").Logger(),
	}
}

// List implements Store.List.
func (s *DiskvStore) List(ctx context.Context, q Query) ([]Object, error) {
	prefix := encodeSegment(parentTag, q.Parent) + keySep
	out := make([]Object, 0)
	for key := range s.d.KeysPrefix(prefix, ctx.Done()) {
		obj, ok := objectForKey(key)
		if !ok {
			s.logger.Warn().Str("key", key).Msg("Skipping undecodable key")
			continue
		}
		if obj.Parent == q.Parent && q.Matches(obj.Name) {
			out = append(out, obj)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list", q.Parent, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Create implements Store.Create.
func (s *DiskvStore) Create(ctx context.Context, name, parent string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Unavailable("create", name, err)
	}
	key := toKey(parent, name)
	if s.d.Has(key) {
		return "", Exists("create", name)
	}
	if err := s.d.Write(key, data); err != nil {
		return "", Unavailable("create", name, err)
	}
	s.logger.Debug().Str("name", name).Str("parent", parent).Int("bytes", len(data)).Msg("Object created")
	return key, nil
}

// ReadFull implements Store.ReadFull.
func (s *DiskvStore) ReadFull(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("read", id, err)
	}
	if _, ok := objectForKey(id); !ok {
		return nil, NotFound("read", id)
	}
	val, err := s.d.Read(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFound("read", id)
		}
		return nil, Unavailable("read", id, err)
	}
	return val, nil
}

// UpdateFull implements Store.UpdateFull.
func (s *DiskvStore) UpdateFull(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("update", id, err)
	}
	if _, ok := objectForKey(id); !ok || !s.d.Has(id) {
		return NotFound("update", id)
	}
	if err := s.d.Write(id, data); err != nil {
		return Unavailable("update", id, err)
	}
	return nil
}

// toKey makes `p<parent>.n<name>` with both segments base64url encoded so
// any name maps onto a safe file path.
func toKey(parent, name string) string {
	return encodeSegment(parentTag, parent) + keySep + encodeSegment(nameTag, name)
}

func encodeSegment(tag, s string) string {
	return tag + base64.RawURLEncoding.EncodeToString([]byte(s))
}

func decodeSegment(tag, s string) (string, bool) {
	if !strings.HasPrefix(s, tag) {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(s[len(tag):])
	if err != nil {
		return "", false
	}
	return string(b), true
}

func objectForKey(key string) (Object, bool) {
	parts := strings.Split(key, keySep)
	if len(parts) != 2 {
		return Object{}, false
	}
	parent, ok := decodeSegment(parentTag, parts[0])
	if !ok {
		return Object{}, false
	}
	name, ok := decodeSegment(nameTag, parts[1])
	if !ok {
		return Object{}, false
	}
	return Object{ID: key, Name: name, Parent: parent}, true
}

func keyToPathTransform(key string) *diskv.PathKey {
	parts := strings.SplitN(key, keySep, 2)
	if len(parts) != 2 {
		return &diskv.PathKey{FileName: key}
	}
	return &diskv.PathKey{
		Path:     []string{parts[0]},
		FileName: parts[1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return strings.Join(pathKey.Path, keySep) + keySep + pathKey.FileName
}

var _ Store = (*DiskvStore)(nil)
