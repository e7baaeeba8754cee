package stdlib

import (
	"os"
	"path/filepath"
	"reflect"

	"github.com/ardnew/mung"

	"github.com/ardnew/dexpr/lang"
)

// PathFuncs is the type behind the Path alias. Lists are PATH-style strings
// delimited by [os.PathListSeparator].
type PathFuncs struct{}

// Join joins elements into a single path.
func (PathFuncs) Join(elem ...string) string { return filepath.Join(elem...) }

// Abs returns the absolute form of path, or path itself if that fails.
func (PathFuncs) Abs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

// Rel returns to relative to from, or the two joined if no relative path
// exists.
func (f PathFuncs) Rel(from, to string) string {
	p, err := filepath.Rel(f.Abs(from), f.Abs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

func (PathFuncs) Base(path string) string  { return filepath.Base(path) }
func (PathFuncs) Dir(path string) string   { return filepath.Dir(path) }
func (PathFuncs) Ext(path string) string   { return filepath.Ext(path) }
func (PathFuncs) Clean(path string) string { return filepath.Clean(path) }

// Exists reports whether anything exists at path.
func (PathFuncs) Exists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

// IsDir reports whether path is a directory.
func (PathFuncs) IsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// IsFile reports whether path is a regular file.
func (PathFuncs) IsFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// IsSymlink reports whether path is a symbolic link.
func (PathFuncs) IsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// List splits a PATH-style list into its elements.
func (PathFuncs) List(list string) []string { return filepath.SplitList(list) }

// Prefix returns list with prefix prepended, removing duplicates.
func (PathFuncs) Prefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// PrefixIf is like Prefix, keeping only the elements accepted by keep.
func (PathFuncs) PrefixIf(list string, keep func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(keep),
	).String()
}

func registerPath(env *lang.Environment) error {
	return env.SetType("Path", reflect.TypeFor[PathFuncs]())
}
