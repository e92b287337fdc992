package realos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/embedfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDefault_BoundOnce(t *testing.T) {
	t.Parallel()

	assert.Same(t, Default(), Default())
}

func TestOS_OpenReadStatClose(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o600))
	o := Default()

	fd, err := o.Open(p, unix.O_RDONLY, 0)
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err := o.Read(fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	var st unix.Stat_t
	require.NoError(t, o.Fstat(fd, &st))
	assert.Equal(t, int64(5), st.Size)
	require.NoError(t, o.Close(fd))

	err = o.Stat(filepath.Join(t.TempDir(), "missing"), &st)
	assert.Equal(t, unix.ENOENT, err, "errors must be bare errnos")
}

func TestOS_Realpath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link")))

	o := Default()
	got, err := o.Realpath(filepath.Join(dir, "link", ".", "..", "target"))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = o.Realpath(filepath.Join(dir, "missing"))
	assert.Equal(t, unix.ENOENT, err)
}

func TestOS_Mkdir(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "sub")
	o := Default()
	require.NoError(t, o.Mkdir(p, 0o755))
	assert.Equal(t, unix.EEXIST, o.Mkdir(p, 0o755))
}

func TestOS_Opendir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d"), 0o755))

	o := Default()
	ds, err := o.Opendir(dir)
	require.NoError(t, err)
	defer ds.Close()

	readAll := func() map[string]uint8 {
		got := map[string]uint8{}
		for {
			d, err := ds.Next()
			require.NoError(t, err)
			if d == nil {
				return got
			}
			assert.NotZero(t, d.Ino, d.Name)
			got[d.Name] = d.Type
		}
	}
	want := map[string]uint8{".": unix.DT_DIR, "..": unix.DT_DIR, "f": unix.DT_REG, "d": unix.DT_DIR}
	assert.Equal(t, want, readAll())

	require.NoError(t, ds.Rewind())
	assert.Equal(t, want, readAll())
}

func TestOS_Fdopendir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	o := Default()

	fd, err := o.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	require.NoError(t, err)
	ds, err := o.Fdopendir(fd)
	require.NoError(t, err)
	assert.Equal(t, fd, ds.Fd())
	require.NoError(t, ds.Close())

	p := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	fd, err = o.Open(p, unix.O_RDONLY, 0)
	require.NoError(t, err)
	_, err = o.Fdopendir(fd)
	assert.Equal(t, unix.ENOTDIR, err)
	require.NoError(t, o.Close(fd))

	var _ embedfs.DirStream = ds
}
