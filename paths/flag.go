package paths

import (
	"flag"
	"strings"
)

// dirList is a flag.Value holding a colon-separated list of directories.
type dirList struct {
	dirs *[]string
}

func (d dirList) String() string {
	if d.dirs == nil {
		return ""
	}
	return strings.Join(*d.dirs, ":")
}

func (d dirList) Set(s string) error {
	*d.dirs = nil
	for _, dir := range strings.Split(s, ":") {
		if dir != "" {
			*d.dirs = append(*d.dirs, dir)
		}
	}
	return nil
}

// SetupDirsFlag creates a new flag with the passed name that sets the list of
// directories Finder f searches. The current list is the default.
func SetupDirsFlag(f *Finder, flagName string) {
	flag.Var(dirList{&f.Dirs}, flagName, "Colon-separated list of directories to search for sprites")
}
