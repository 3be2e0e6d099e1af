package ingest

import (
	"os"

	"golang.org/x/exp/mmap"
)

// mappedFile is read-only memory-mapped access to a file, with remapping
// when the file grows. Growth detection backs tail-follow.
type mappedFile struct {
	reader *mmap.ReaderAt
	size   int64
	path   string
}

func openMapped(path string) (*mappedFile, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		reader.Close()
		return nil, err
	}

	return &mappedFile{
		reader: reader,
		size:   info.Size(),
		path:   path,
	}, nil
}

func (m *mappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.reader.ReadAt(p, off)
}

func (m *mappedFile) Size() int64 {
	return m.size
}

// refresh remaps the file if it has grown. Returns true when new bytes
// became available.
func (m *mappedFile) refresh() (bool, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	if info.Size() <= m.size {
		return false, nil
	}

	reader, err := mmap.Open(m.path)
	if err != nil {
		return false, err
	}
	m.reader.Close()
	m.reader = reader
	m.size = info.Size()
	return true, nil
}

func (m *mappedFile) Close() error {
	return m.reader.Close()
}
