// Package paths locates sprite files on disk or over HTTP.
package paths

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Ext is the extension of sprite files.
const Ext = ".wan"

// Finder looks for sprite files in a list of directories.
type Finder struct {
	Dirs []string
}

// Find locates the passed file name in the finder's directories and returns a
// path to it, or "" if it exists in none of them. Absolute paths and paths
// relative to the working directory are returned as they are if they exist.
func (f *Finder) Find(fileName string) string {
	if _, err := os.Stat(fileName); err == nil {
		return fileName
	}
	for _, dir := range f.Dirs {
		path := filepath.Join(dir, fileName)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			glog.V(2).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// FindSprite looks up the sprite called name (a path relative to one of the
// finder's directories, without Ext) and returns its path, or "" if no
// directory has it. Unlike Find it never looks outside the directories.
func (f *Finder) FindSprite(name string) string {
	for _, dir := range f.Dirs {
		for _, ext := range []string{Ext, strings.ToUpper(Ext)} {
			path := filepath.Join(dir, filepath.FromSlash(name)+ext)
			if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
				return path
			}
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look, and
// opens it. URLs are fetched instead.
func (f *Finder) Open(fileName string) (interface {
	io.ReadCloser
	io.Seeker
}, error) {
	if IsURL(fileName) {
		return openHTTP(fileName)
	}
	path := f.Find(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "paths: %q not found in %v", fileName, f.Dirs)
	}
	return os.Open(path)
}

// Expand turns a list of files, directories and URLs into a sorted list of
// sprites. Directories are searched recursively for files ending in Ext
// (case-insensitively); files and URLs are kept as given. Names that are not
// found as they are get looked up in the finder's directories.
func (f *Finder) Expand(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if IsURL(arg) {
			out = append(out, arg)
			continue
		}
		path := arg
		if _, err := os.Stat(path); err != nil {
			if path = f.Find(arg); path == "" {
				return nil, errors.Wrapf(os.ErrNotExist, "paths: %q", arg)
			}
		}
		st, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "paths: %q", path)
		}
		if !st.IsDir() {
			out = append(out, path)
			continue
		}
		found, err := Walk(path)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// Walk returns every sprite file under root, sorted.
func Walk(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), Ext) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "paths: walking %s", root)
	}
	sort.Strings(out)
	return out, nil
}

// All lists every sprite in the finder's directories, keyed by its path
// relative to the directory it was found in. Earlier directories win.
func (f *Finder) All() (map[string]string, error) {
	all := map[string]string{}
	for _, dir := range f.Dirs {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		found, err := Walk(dir)
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if _, ok := all[rel]; !ok {
				all[rel] = path
			}
		}
	}
	return all, nil
}

// BaseName returns the file name of a sprite path or URL without Ext.
func BaseName(path string) string {
	if IsURL(path) {
		path = path[strings.LastIndex(path, "/")+1:]
	} else {
		path = filepath.Base(path)
	}
	if strings.EqualFold(filepath.Ext(path), Ext) {
		path = path[:len(path)-len(Ext)]
	}
	return path
}

// IsURL reports whether name is an http or https URL.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}
