package romfs

import (
	"io"
	"io/fs"
	"time"
)

type file struct {
	name string
	size int64
}

var _ fs.FileInfo = (*file)(nil)

func (f *file) Name() string       { return f.name }
func (f *file) Size() int64        { return f.size }
func (f *file) ModTime() time.Time { return time.Time{} }
func (f *file) IsDir() bool        { return false }
func (f *file) Sys() any           { return nil }
func (f *file) Mode() fs.FileMode  { return 0444 }

func (f *file) String() string {
	return fs.FormatFileInfo(f)
}

// An openFile is a region open for reading.
type openFile struct {
	*io.SectionReader
	f *file
}

func (f *openFile) Close() error               { return nil }
func (f *openFile) Stat() (fs.FileInfo, error) { return f.f, nil }
