package filesystem

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/config"
	"github.com/brettbedarf/embedfs/image"
	"github.com/brettbedarf/embedfs/internal/util"
	"golang.org/x/sys/unix"
)

// Store is the Asset Store: the immutable embedded tree plus the table of
// virtual descriptors opened on it. Both share one lock; every operation is a
// short in-memory computation so it is held for the whole call.
type Store struct {
	cfg       *config.Config
	idx       *index
	attrs     attrTemplate
	mountRoot string
	startFile string

	mu       sync.Mutex
	handles  *handleTable
	alloc    FDAllocator
	poisoned atomic.Bool
	fatal    func(error)
}

type StoreOption func(*Store)

// WithAllocator replaces the sentinel-duplicating descriptor allocator.
func WithAllocator(a FDAllocator) StoreOption {
	return func(s *Store) { s.alloc = a }
}

// WithFatalHandler replaces the handler invoked when the store is used after
// a panic left its lock state unknown. The default logs at fatal level, which
// exits the process.
func WithFatalHandler(fn func(error)) StoreOption {
	return func(s *Store) { s.fatal = fn }
}

// NewStore indexes every file of layout.
func NewStore(cfg *config.Config, layout *image.Layout, opts ...StoreOption) (*Store, error) {
	logger := util.GetLogger("Store.New")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	entries, err := layout.Entries()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedfs.ErrCorruptImage, err)
	}
	s := &Store{
		cfg: cfg,
		idx: newIndex(entries),
		attrs: attrTemplate{
			dev:     unix.Mkdev(cfg.DeviceMajor, cfg.DeviceMinor),
			uid:     uint32(unix.Getuid()),
			gid:     uint32(unix.Getgid()),
			blksize: int32(cfg.BlockSize),
		},
		mountRoot: layout.MountRoot,
		startFile: layout.StartFile,
		handles:   newHandleTable(),
		fatal:     defaultFatal,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alloc == nil {
		if s.alloc, err = NewDupAllocator(cfg.SentinelFD); err != nil {
			return nil, err
		}
	}
	logger.Debug().Int("files", s.idx.Len()).Str("mountRoot", s.mountRoot).Msg("Asset store built")
	return s, nil
}

func defaultFatal(err error) {
	logger := util.GetLogger("Store")
	logger.Fatal().Err(err).Msg("Virtual filesystem state is unrecoverable")
}

// MountRoot is the absolute prefix under which the tree is visible.
func (s *Store) MountRoot() string {
	return s.mountRoot
}

// StartFile is the entry point path recorded at build time, may be empty.
func (s *Store) StartFile() string {
	return s.startFile
}

// acquire takes the store lock and returns its release function, which must
// be deferred directly. A panic between the two poisons the store.
func (s *Store) acquire() (func(), error) {
	s.mu.Lock()
	if s.poisoned.Load() {
		s.mu.Unlock()
		s.fatal(embedfs.ErrPoisoned)
		return nil, embedfs.ErrPoisoned
	}
	return func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			s.mu.Unlock()
			panic(r)
		}
		s.mu.Unlock()
	}, nil
}

// Lookup resolves key to a file or directory entry.
func (s *Store) Lookup(key embedfs.PathKey) (*embedfs.Entry, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return s.lookupLocked("lookup", key)
}

func (s *Store) lookupLocked(op string, key embedfs.PathKey) (*embedfs.Entry, error) {
	e, ok := s.idx.lookup(key)
	if !ok {
		return nil, embedfs.NewError(op, key.String(), embedfs.ErrNotFound)
	}
	return e, nil
}

// Open allocates a virtual descriptor for key with its cursor at 0.
func (s *Store) Open(key embedfs.PathKey) (int, error) {
	logger := util.GetLogger("Store.Open")

	release, err := s.acquire()
	if err != nil {
		return -1, err
	}
	defer release()

	e, err := s.lookupLocked("open", key)
	if err != nil {
		return -1, err
	}
	fd, err := s.alloc.Alloc()
	if err != nil {
		return -1, embedfs.NewError("open", key.String(), err)
	}
	s.handles.insert(&OpenHandle{FD: fd, Entry: e})
	logger.Trace().Int("fd", fd).Str("path", key.String()).Stringer("kind", e.Kind).Msg("Opened virtual descriptor")
	return fd, nil
}

// IsVirtual reports whether fd is an open virtual descriptor.
func (s *Store) IsVirtual(fd int) bool {
	_, ok := s.Handle(fd)
	return ok
}

// Handle returns the entry behind a virtual descriptor.
func (s *Store) Handle(fd int) (*embedfs.Entry, bool) {
	release, err := s.acquire()
	if err != nil {
		return nil, false
	}
	defer release()
	h, ok := s.handles.get(fd)
	if !ok {
		return nil, false
	}
	return h.Entry, true
}

// Read copies file content from the cursor and advances it. It returns 0 at
// end of file.
func (s *Store) Read(fd int, p []byte) (int, error) {
	release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	h, err := s.fileHandleLocked("read", fd)
	if err != nil {
		return 0, err
	}
	content := h.Entry.Content
	n := copy(p, content[min(h.cursor, len(content)):])
	h.cursor += n
	return n, nil
}

// ReadAt copies file content starting at off without touching the cursor.
func (s *Store) ReadAt(fd int, p []byte, off int64) (int, error) {
	release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	h, err := s.fileHandleLocked("pread", fd)
	if err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, embedfs.NewError("pread", h.Entry.Key.String(), unix.EINVAL)
	}
	content := h.Entry.Content
	if off >= int64(len(content)) {
		return 0, nil
	}
	return copy(p, content[off:]), nil
}

func (s *Store) fileHandleLocked(op string, fd int) (*OpenHandle, error) {
	h, ok := s.handles.get(fd)
	if !ok {
		return nil, embedfs.NewError(op, fmt.Sprintf("fd %d", fd), embedfs.ErrBadDescriptor)
	}
	if h.Entry.IsDir() {
		return nil, embedfs.NewError(op, h.Entry.Key.String(), embedfs.ErrIsDir)
	}
	return h, nil
}

func (s *Store) dirHandleLocked(op string, fd int) (*OpenHandle, error) {
	h, ok := s.handles.get(fd)
	if !ok {
		return nil, embedfs.NewError(op, fmt.Sprintf("fd %d", fd), embedfs.ErrBadDescriptor)
	}
	if !h.Entry.IsDir() {
		return nil, embedfs.NewError(op, h.Entry.Key.String(), embedfs.ErrNotDir)
	}
	return h, nil
}

// Close forgets a virtual descriptor. The kernel descriptor backing it stays
// open; releasing it is the caller's job.
func (s *Store) Close(fd int) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	if !s.handles.remove(fd) {
		return embedfs.NewError("close", fmt.Sprintf("fd %d", fd), embedfs.ErrBadDescriptor)
	}
	return nil
}

// Metadata synthesizes the metadata of key.
func (s *Store) Metadata(key embedfs.PathKey) (embedfs.Metadata, error) {
	release, err := s.acquire()
	if err != nil {
		return embedfs.Metadata{}, err
	}
	defer release()

	e, err := s.lookupLocked("stat", key)
	if err != nil {
		return embedfs.Metadata{}, err
	}
	return s.attrs.metadata(e), nil
}

// MetadataOf synthesizes the metadata of the entry behind a virtual descriptor.
func (s *Store) MetadataOf(fd int) (embedfs.Metadata, error) {
	release, err := s.acquire()
	if err != nil {
		return embedfs.Metadata{}, err
	}
	defer release()

	h, ok := s.handles.get(fd)
	if !ok {
		return embedfs.Metadata{}, embedfs.NewError("fstat", fmt.Sprintf("fd %d", fd), embedfs.ErrBadDescriptor)
	}
	return s.attrs.metadata(h.Entry), nil
}

// Opendir opens a directory handle over a snapshot of key's children.
func (s *Store) Opendir(key embedfs.PathKey) (int, error) {
	release, err := s.acquire()
	if err != nil {
		return -1, err
	}
	defer release()

	e, err := s.lookupLocked("opendir", key)
	if err != nil {
		return -1, err
	}
	if !e.IsDir() {
		return -1, embedfs.NewError("opendir", key.String(), embedfs.ErrNotDir)
	}
	fd, err := s.alloc.Alloc()
	if err != nil {
		return -1, embedfs.NewError("opendir", key.String(), err)
	}
	s.handles.insert(&OpenHandle{FD: fd, Entry: e})
	return fd, nil
}

// Fdopendir checks that fd is a virtual directory descriptor usable for
// directory reads. The listing continues from the handle's cursor.
func (s *Store) Fdopendir(fd int) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	_, err = s.dirHandleLocked("fdopendir", fd)
	return err
}

// Readdir returns the next child of a directory handle, or nil at the end of
// the listing.
func (s *Store) Readdir(fd int) (*embedfs.Dirent, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	h, err := s.dirHandleLocked("readdir", fd)
	if err != nil {
		return nil, err
	}
	children := h.Entry.Children
	if h.cursor >= len(children) {
		return nil, nil
	}
	child := children[h.cursor]
	h.cursor++

	typ := uint8(unix.DT_REG)
	if child.Kind == embedfs.DirEntry {
		typ = unix.DT_DIR
	}
	return &embedfs.Dirent{Ino: child.Ino, Type: typ, Name: truncateName(child.Key.Name())}, nil
}

// truncateName cuts name to fit a dirent without splitting a UTF-8 sequence.
func truncateName(name string) string {
	if len(name) <= direntNameMax {
		return name
	}
	n := direntNameMax
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

// Rewinddir moves a directory handle back to its first child.
func (s *Store) Rewinddir(fd int) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	h, err := s.dirHandleLocked("rewinddir", fd)
	if err != nil {
		return err
	}
	h.cursor = 0
	return nil
}

// Closedir forgets a directory handle. As with Close the kernel descriptor is
// released by the caller.
func (s *Store) Closedir(fd int) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.dirHandleLocked("closedir", fd); err != nil {
		return err
	}
	s.handles.remove(fd)
	return nil
}

// Shutdown releases the kernel descriptors of handles that were never closed
// and the allocator's sentinel.
func (s *Store) Shutdown() error {
	logger := util.GetLogger("Store.Shutdown")

	s.mu.Lock()
	defer s.mu.Unlock()

	fds := s.handles.drain()
	for _, fd := range fds {
		if err := s.alloc.Release(fd); err != nil {
			logger.Warn().Err(err).Int("fd", fd).Msg("Failed to release descriptor")
		}
	}
	if len(fds) > 0 {
		logger.Debug().Int("count", len(fds)).Msg("Released leftover descriptors")
	}
	return s.alloc.Close()
}
