package main

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ankit-chaubey/metastrip/core"
)

// collect expands inputs into classified files. Directories contribute
// their regular files, one level deep unless recursive. Anything that is
// not a directory is taken as a file, so a missing path is reported as a
// failed file rather than dropped.
func collect(inputs []string, recursive bool) []core.FileDescriptor {
	var files []core.FileDescriptor
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil || !fi.IsDir() {
			files = append(files, core.Describe(in))
			continue
		}

		_ = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.WithField("path", path).WithError(err).Warn("Skipping unreadable entry")
				return nil
			}
			if d.IsDir() {
				if path != in && !recursive {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, core.Describe(path))
			}
			return nil
		})
	}
	return files
}
