package sys

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

// DefaultDescriptors is the count of descriptors a FileTable has by default: stdin, stdout and stderr by convention.
const DefaultDescriptors = 3

var (
	// ErrBadDescriptor is returned when a descriptor is not in the table.
	ErrBadDescriptor = errors.New("bad file descriptor")
	// ErrNoSpace is returned when an append would grow a descriptor past its limit, or past available memory.
	ErrNoSpace = errors.New("no space left for descriptor")
)

// FileTable is a fixed set of append-only byte sinks indexed by file descriptor.
//
// The guest only appends while a collaborator, typically on another goroutine, reads. Each Append and each read is
// atomic with respect to the others on the same descriptor: a reader sees either all or none of an append.
type FileTable struct {
	files []*file
	// limit is the maximum size in bytes of each descriptor, or zero for no limit.
	limit int
}

type file struct {
	mu  sync.RWMutex
	buf bytes.Buffer
}

// NewFileTable returns a table of n empty descriptors with no size limit.
func NewFileTable(n int) *FileTable {
	return NewLimitedFileTable(n, 0)
}

// NewLimitedFileTable returns a table of n empty descriptors, each of which fails with ErrNoSpace rather than grow
// past limit bytes. A limit of zero means no limit.
func NewLimitedFileTable(n, limit int) *FileTable {
	files := make([]*file, n)
	for i := range files {
		files[i] = &file{}
	}
	return &FileTable{files: files, limit: limit}
}

// Len returns the count of descriptors.
func (t *FileTable) Len() int {
	return len(t.files)
}

func (t *FileTable) lookup(fd uint32) (*file, bool) {
	if uint64(fd) >= uint64(len(t.files)) {
		return nil, false
	}
	return t.files[fd], true
}

// Append adds p to the end of the descriptor. On error nothing is appended.
func (t *FileTable) Append(fd uint32, p []byte) (n int, err error) {
	f, ok := t.lookup(fd)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrBadDescriptor, fd)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if t.limit > 0 && f.buf.Len()+len(p) > t.limit {
		return 0, fmt.Errorf("%w: fd %d at %d of %d bytes", ErrNoSpace, fd, f.buf.Len(), t.limit)
	}

	defer func() {
		// bytes.Buffer panics when the allocation fails.
		if recovered := recover(); recovered != nil {
			if recovered != bytes.ErrTooLarge {
				panic(recovered)
			}
			n, err = 0, fmt.Errorf("%w: fd %d: %v", ErrNoSpace, fd, recovered)
		}
	}()
	f.buf.Grow(len(p))
	return f.buf.Write(p)
}

// Bytes returns a copy of everything appended to the descriptor so far, or nil if it is not in the table.
func (t *FileTable) Bytes(fd uint32) []byte {
	f, ok := t.lookup(fd)
	if !ok {
		return nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]byte{}, f.buf.Bytes()...)
}

// Size returns the count of bytes appended to the descriptor so far, or zero if it is not in the table.
func (t *FileTable) Size(fd uint32) int {
	f, ok := t.lookup(fd)
	if !ok {
		return 0
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buf.Len()
}
