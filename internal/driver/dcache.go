package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"markc/internal/diag"
	"markc/internal/project"
)

// Текущая версия формата - увеличивать при изменении CacheEntry
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты компиляции документов по ключу
// H(содержимое || каталог || настройки). Безопасен для параллельного доступа.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheEntry is one cached document outcome. Failed documents are cached
// too so their diagnostics come back without recompiling.
type CacheEntry struct {
	Schema      uint16
	Path        string
	Artifact    *Artifact
	Diagnostics []diag.Diagnostic
	Broken      bool
}

// Usable reports whether the entry was written by this cache format.
func (e *CacheEntry) Usable() bool {
	return e != nil && e.Schema == diskCacheSchemaVersion && (e.Broken || e.Artifact != nil)
}

func newCacheEntry(res *Result) *CacheEntry {
	e := &CacheEntry{
		Schema:   diskCacheSchemaVersion,
		Path:     res.File.Path,
		Artifact: res.Artifact,
		Broken:   res.Failed(),
	}
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		e.Diagnostics = append(e.Diagnostics, d)
	}
	return e
}

// OpenDiskCache opens the per-user cache for app under XDG_CACHE_HOME.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не держать тысячи файлов в одном
	return filepath.Join(c.dir, "docs", hexKey[:2], hexKey+".mp")
}

// Put serializes and atomically writes an entry.
func (c *DiskCache) Put(key project.Digest, entry *CacheEntry) error {
	if c == nil || entry == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(entry); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get reads an entry. A missing entry is not an error.
func (c *DiskCache) Get(key project.Digest, out *CacheEntry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем и удалим: параллельный Get не увидит полуудалённый каталог
	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
