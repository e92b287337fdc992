package filesystem

import (
	"sync"
	"testing"

	"github.com/brettbedarf/embedfs"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	base := embedfs.PathKey{"app", "lib"}
	tests := []struct {
		name string
		base embedfs.PathKey
		raw  string
		want embedfs.PathKey
	}{
		{"relative appends", base, "util.rb", embedfs.PathKey{"app", "lib", "util.rb"}},
		{"dot is ignored", base, "./a/./b", embedfs.PathKey{"app", "lib", "a", "b"}},
		{"dotdot pops", base, "../bin/run", embedfs.PathKey{"app", "bin", "run"}},
		{"dotdot stops at root", base, "../../../../etc", embedfs.PathKey{"etc"}},
		{"absolute ignores base", base, "/srv/x", embedfs.PathKey{"srv", "x"}},
		{"repeated slashes", base, "a//b/", embedfs.PathKey{"app", "lib", "a", "b"}},
		{"root", nil, "/", embedfs.PathKey{}},
		{"empty relative is base", base, "", base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Canonicalize(tt.base, tt.raw))
		})
	}
}

func TestCanonicalize_DoesNotAliasBase(t *testing.T) {
	t.Parallel()

	base := make(embedfs.PathKey, 1, 4)
	base[0] = "app"
	a := Canonicalize(base, "x")
	b := Canonicalize(base, "y")
	assert.Equal(t, embedfs.PathKey{"app", "x"}, a)
	assert.Equal(t, embedfs.PathKey{"app", "y"}, b)
}

func TestResolver_IsUnderMountRoot(t *testing.T) {
	t.Parallel()

	r := NewResolver("/app/")
	assert.Equal(t, "/app", r.MountRoot())
	assert.True(t, r.IsUnderMountRoot("/app"))
	assert.True(t, r.IsUnderMountRoot("/app/lib/a.rb"))
	assert.True(t, r.IsUnderMountRoot("/application"), "the gate is a byte prefix")
	assert.False(t, r.IsUnderMountRoot("/ap"))
	assert.False(t, r.IsUnderMountRoot("app/lib"))
}

func TestResolver_Expand(t *testing.T) {
	t.Parallel()

	r := NewResolver("/app")
	assert.Equal(t, "lib/a.rb", r.Expand("lib/a.rb"), "no working directory leaves paths alone")

	r.SetWorkingDir(embedfs.PathKey{"app", "lib"})
	assert.Equal(t, "/app/lib/a.rb", r.Expand("a.rb"))
	assert.Equal(t, "/etc/hosts", r.Expand("/etc/hosts"))
	assert.Equal(t, "/app/bin", r.Expand("../bin"))

	r.ClearWorkingDir()
	_, ok := r.WorkingDir()
	assert.False(t, ok)
}

func TestResolver_Route(t *testing.T) {
	t.Parallel()

	r := NewResolver("/app")

	k, _, governed := r.Route("/app/lib/../main.rb")
	assert.True(t, governed)
	assert.Equal(t, embedfs.PathKey{"app", "main.rb"}, k)

	_, osPath, governed := r.Route("/etc/hosts")
	assert.False(t, governed)
	assert.Equal(t, "/etc/hosts", osPath)

	_, osPath, governed = r.Route("/app/../etc/hosts")
	assert.False(t, governed, "canonical form decides")
	assert.Equal(t, "/app/../etc/hosts", osPath)

	_, osPath, governed = r.Route("main.rb")
	assert.False(t, governed, "relative paths belong to the OS without a virtual working directory")
	assert.Equal(t, "main.rb", osPath)

	_, _, governed = r.Route("")
	assert.False(t, governed)

	r.SetWorkingDir(embedfs.PathKey{"app"})
	k, _, governed = r.Route("main.rb")
	assert.True(t, governed)
	assert.Equal(t, embedfs.PathKey{"app", "main.rb"}, k)

	_, osPath, governed = r.Route("../etc/hosts")
	assert.False(t, governed)
	assert.Equal(t, "/etc/hosts", osPath, "escaping the tree forwards the expanded path")
}

func TestResolver_RouteAt(t *testing.T) {
	t.Parallel()

	r := NewResolver("/app")
	dir := embedfs.PathKey{"app", "lib"}

	k, _, governed := r.RouteAt(dir, "util.rb")
	assert.True(t, governed)
	assert.Equal(t, embedfs.PathKey{"app", "lib", "util.rb"}, k)

	_, osPath, governed := r.RouteAt(dir, "../../tmp/x")
	assert.False(t, governed)
	assert.Equal(t, "/tmp/x", osPath)

	k, _, governed = r.RouteAt(dir, "/app/main.rb")
	assert.True(t, governed)
	assert.Equal(t, embedfs.PathKey{"app", "main.rb"}, k)
}

func TestResolver_ConcurrentWorkingDir(t *testing.T) {
	t.Parallel()

	r := NewResolver("/app")
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			if i%2 == 0 {
				r.SetWorkingDir(embedfs.PathKey{"app", "a"})
			} else {
				r.SetWorkingDir(embedfs.PathKey{"app", "b"})
			}
			wd, ok := r.WorkingDir()
			assert.True(t, ok)
			assert.Len(t, wd, 2)
		})
	}
	wg.Wait()
}
