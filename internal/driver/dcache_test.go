package driver_test

import (
	"testing"

	"markc/internal/diag"
	"markc/internal/driver"
	"markc/internal/source"
)

func TestDiskCachePutGet(t *testing.T) {
	c, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := source.Sum([]byte("doc"), []byte("catalog"))

	var entry driver.CacheEntry
	if hit, err := c.Get(key, &entry); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	in := &driver.CacheEntry{
		Schema: 1,
		Path:   "a.xaml",
		Broken: true,
		Diagnostics: []diag.Diagnostic{
			diag.NewError(diag.IOLoadFileError, source.Span{Start: 1, End: 3}, "boom"),
		},
	}
	if err := c.Put(key, in); err != nil {
		t.Fatal(err)
	}
	hit, err := c.Get(key, &entry)
	if err != nil || !hit {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if !entry.Usable() || entry.Path != "a.xaml" || len(entry.Diagnostics) != 1 || entry.Diagnostics[0].Message != "boom" {
		t.Fatalf("entry = %+v", entry)
	}

	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	var again driver.CacheEntry
	if hit, _ := c.Get(key, &again); hit {
		t.Fatalf("entry survived DropAll")
	}
	// после DropAll кэш снова пишется
	if err := c.Put(key, in); err != nil {
		t.Fatal(err)
	}
}

func TestNilDiskCache(t *testing.T) {
	var c *driver.DiskCache
	var entry driver.CacheEntry
	if hit, err := c.Get(source.Digest{}, &entry); hit || err != nil {
		t.Fatalf("nil cache hit")
	}
	if err := c.Put(source.Digest{}, &entry); err != nil {
		t.Fatal(err)
	}
}

func TestStaleSchemaIsUnusable(t *testing.T) {
	e := driver.CacheEntry{Schema: 99, Broken: true}
	if e.Usable() {
		t.Fatalf("foreign schema usable")
	}
}
