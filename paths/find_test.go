package paths

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"badc0de.net/pkg/go-pmdwan/ttesting"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("SIR0"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.wan"))
	touch(t, filepath.Join(root, "sub", "a.WAN"))
	touch(t, filepath.Join(root, "notes.txt"))

	got, err := Walk(root)
	ttesting.AssertNoError(t, "walk", err)
	ttesting.AssertEqualInt(t, "count", len(got), 2)
	if len(got) == 2 {
		ttesting.AssertEqualBool(t, "sorted", got[0] == filepath.Join(root, "b.wan"), true)
	}
}

func TestFinder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	touch(t, filepath.Join(second, "monster", "0001.wan"))
	touch(t, filepath.Join(first, "monster", "0002.wan"))
	touch(t, filepath.Join(second, "monster", "0002.wan"))

	f := &Finder{Dirs: []string{first, second}}
	ttesting.AssertEqualBool(t, "found in second", f.Find("monster/0001.wan") == filepath.Join(second, "monster", "0001.wan"), true)
	ttesting.AssertEqualBool(t, "first wins", f.Find("monster/0002.wan") == filepath.Join(first, "monster", "0002.wan"), true)
	ttesting.AssertEqualBool(t, "missing", f.Find("monster/0003.wan") == "", true)

	all, err := f.All()
	ttesting.AssertNoError(t, "all", err)
	ttesting.AssertEqualInt(t, "all", len(all), 2)
	ttesting.AssertEqualBool(t, "all prefers first", all["monster/0002.wan"] == filepath.Join(first, "monster", "0002.wan"), true)

	got, err := f.Expand([]string{"monster/0001.wan", first})
	ttesting.AssertNoError(t, "expand", err)
	ttesting.AssertEqualInt(t, "expanded", len(got), 2)

	_, err = f.Expand([]string{"nope.wan"})
	ttesting.AssertErrorIs(t, "expand missing", err, os.ErrNotExist)

	_, err = f.Open("nope.wan")
	ttesting.AssertErrorIs(t, "open missing", err, os.ErrNotExist)
}

func TestFindSprite(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	touch(t, filepath.Join(second, "monster", "0001.wan"))
	touch(t, filepath.Join(first, "UPPER.WAN"))
	if err := os.MkdirAll(filepath.Join(first, "dir.wan"), 0o755); err != nil {
		t.Fatal(err)
	}

	f := &Finder{Dirs: []string{first, second}}
	ttesting.AssertEqualBool(t, "second dir", f.FindSprite("monster/0001") == filepath.Join(second, "monster", "0001.wan"), true)
	ttesting.AssertEqualBool(t, "upper-case extension", f.FindSprite("UPPER") == filepath.Join(first, "UPPER.WAN"), true)
	ttesting.AssertEqualBool(t, "directory", f.FindSprite("dir") == "", true)
	ttesting.AssertEqualBool(t, "with extension", f.FindSprite("monster/0001.wan") == "", true)
}

func TestOpenHTTP(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a.wan" {
			http.NotFound(w, r)
			return
		}
		hits++
		w.Write([]byte("SIR0data"))
	}))
	defer srv.Close()

	f := &Finder{}
	for i := 0; i < 2; i++ {
		rc, err := f.Open(srv.URL + "/a.wan")
		ttesting.AssertNoError(t, "open", err)
		b, err := io.ReadAll(rc)
		ttesting.AssertNoError(t, "read", err)
		ttesting.AssertEqualBytes(t, "body", b, []byte("SIR0data"))
		rc.Close()
	}
	ttesting.AssertEqualInt(t, "fetched once", hits, 1)

	_, err := f.Open(srv.URL + "/b.wan")
	ttesting.AssertErrorIs(t, "404", err, os.ErrNotExist)
}

func TestBaseName(t *testing.T) {
	ttesting.AssertEqualBool(t, "path", BaseName("/x/monster/0001.wan") == "0001", true)
	ttesting.AssertEqualBool(t, "upper case", BaseName("A.WAN") == "A", true)
	ttesting.AssertEqualBool(t, "url", BaseName("https://example.com/s/b.wan") == "b", true)
	ttesting.AssertEqualBool(t, "other extension", BaseName("c.bin") == "c.bin", true)
}

func TestDirsFlag(t *testing.T) {
	f := &Finder{Dirs: []string{"."}}
	v := dirList{&f.Dirs}
	ttesting.AssertEqualBool(t, "default", v.String() == ".", true)
	ttesting.AssertNoError(t, "set", v.Set("/a::/b"))
	ttesting.AssertEqualInt(t, "dirs", len(f.Dirs), 2)
}
