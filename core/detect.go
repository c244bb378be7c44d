package core

import (
	"path/filepath"
	"strings"
)

// extMap maps lowercase extensions to categories.
var extMap = map[string]Category{
	".jpg":  CategoryImage,
	".jpeg": CategoryImage,
	".png":  CategoryImage,
	".gif":  CategoryImage,
	".bmp":  CategoryImage,
	".tiff": CategoryImage,

	".mp4": CategoryVideo,
	".mov": CategoryVideo,
	".avi": CategoryVideo,
	".mkv": CategoryVideo,

	".pdf": CategoryPDF,
}

// Classify returns the category for path based on its extension alone.
// It never touches the filesystem and never fails; a missing or
// unrecognised extension yields CategoryUnknown.
func Classify(path string) Category {
	if id, ok := extMap[Ext(path)]; ok {
		return id
	}
	return CategoryUnknown
}

// Describe classifies path into a FileDescriptor.
func Describe(path string) FileDescriptor {
	return FileDescriptor{Path: path, Category: Classify(path)}
}

// Ext returns the lowercase extension of path including the dot, or "".
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
