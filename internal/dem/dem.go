// Package dem defines the external DEM file/folder contract and two
// concrete sources: a local filesystem folder and a ZIP-archived tile. Both
// walk directories and open files with the same idioms used elsewhere for
// tile metadata rebuilds, adapted to streaming big-endian int16 elevation
// samples instead of whole-tile byte blobs.
package dem

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// Stream is a forward-only reader of big-endian signed 16-bit elevation
// samples. Skip must be cheap (O(1) seek) when CanSkip reports true; when it
// can't, the raster pipeline is forced into single-reader mode.
type Stream interface {
	io.ReadCloser
	// Skip advances the stream by n bytes without materialising them.
	Skip(n int64) error
}

// File is an opaque handle to one DEM source: a .hgt file on disk, or a
// single .hgt entry inside a .zip archive.
type File interface {
	Name() string
	SizeBytes() int64
	// CanSkip reports whether Open's Stream supports cheap Skip. Archive
	// entries without random access must return false.
	CanSkip() bool
	Open() (Stream, error)
}

// Folder is a recursively enumerable source of DEM files.
type Folder interface {
	// Walk calls fn once per File found, recursing into sub-folders.
	// A single file's error (e.g. failed to stat) must not stop the walk;
	// implementations skip that file and continue.
	Walk(fn func(File) error) error
}

// fileStream adapts an *os.File (or zip entry reader) into a Stream.
type fileStream struct {
	r       *bufio.Reader
	closer  io.Closer
	seeker  io.Seeker
}

func (s *fileStream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *fileStream) Close() error { return s.closer.Close() }

func (s *fileStream) Skip(n int64) error {
	if s.seeker != nil {
		cur, err := s.seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		// cur is the OS position, which runs ahead of the logical position
		// by whatever bufio has buffered but not yet handed out.
		_, err = s.seeker.Seek(cur-int64(s.r.Buffered())+n, io.SeekStart)
		if err != nil {
			return err
		}
		s.r.Reset(s.seeker.(io.Reader))
		return nil
	}
	_, err := io.CopyN(io.Discard, s.r, n)
	return err
}

// localFile is a .hgt file directly on disk; its Stream supports fast Skip
// via os.File.Seek.
type localFile struct {
	path string
	size int64
}

func (f *localFile) Name() string     { return filepath.Base(f.path) }
func (f *localFile) SizeBytes() int64 { return f.size }
func (f *localFile) CanSkip() bool    { return true }

func (f *localFile) Open() (Stream, error) {
	osf, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	return &fileStream{r: bufio.NewReaderSize(osf, 64*1024), closer: osf, seeker: osf}, nil
}

// zipFile is a single .hgt entry inside a .zip archive. zip.File readers are
// forward-only with no cheap Seek, so CanSkip is false and the pipeline
// degrades to a single reader task for this source.
type zipFile struct {
	archivePath string
	entryName   string
	size        int64
}

func (f *zipFile) Name() string     { return f.entryName }
func (f *zipFile) SizeBytes() int64 { return f.size }
func (f *zipFile) CanSkip() bool    { return false }

func (f *zipFile) Open() (Stream, error) {
	zr, err := zip.OpenReader(f.archivePath)
	if err != nil {
		return nil, err
	}
	for _, zf := range zr.File {
		if zf.Name == f.entryName {
			rc, err := zf.Open()
			if err != nil {
				zr.Close()
				return nil, err
			}
			return &zipEntryStream{rc: rc, archive: zr}, nil
		}
	}
	zr.Close()
	return nil, os.ErrNotExist
}

type zipEntryStream struct {
	rc      io.ReadCloser
	archive *zip.ReadCloser
}

func (s *zipEntryStream) Read(p []byte) (int, error) { return s.rc.Read(p) }

func (s *zipEntryStream) Close() error {
	err := s.rc.Close()
	s.archive.Close()
	return err
}

// Skip discards n bytes by reading and dropping them; this is the "can't
// skip cheaply" path that forces single-reader mode upstream.
func (s *zipEntryStream) Skip(n int64) error {
	_, err := io.CopyN(io.Discard, s.rc, n)
	return err
}

// FileSystemFolder walks a directory tree for .hgt and .zip files.
type FileSystemFolder struct {
	Root string
}

func NewFileSystemFolder(root string) *FileSystemFolder {
	return &FileSystemFolder{Root: root}
}

func (f *FileSystemFolder) Walk(fn func(File) error) error {
	return filepath.WalkDir(f.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // one bad entry must not abort the whole walk
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		ext := filepath.Ext(path)
		switch ext {
		case ".hgt":
			return fn(&localFile{path: path, size: info.Size()})
		case ".zip":
			return walkZip(path, fn)
		}
		return nil
	})
}

func walkZip(path string, fn func(File) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer zr.Close()
	for _, zf := range zr.File {
		if filepath.Ext(zf.Name) != ".hgt" {
			continue
		}
		if err := fn(&zipFile{archivePath: path, entryName: zf.Name, size: int64(zf.UncompressedSize64)}); err != nil {
			return err
		}
	}
	return nil
}
