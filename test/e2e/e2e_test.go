package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var (
	embedfsBin string
	projRoot   string
	testEnv    *E2ETestEnvironment
)

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "embedfs-e2e")
	if err != nil {
		panic(err)
	}

	embedfsBin = filepath.Join(tmpDir, "embedfs")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", embedfsBin, "./cmd/embedfs")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	testEnv, err = NewE2ETestEnvironment(tmpDir)
	if err != nil {
		panic(err)
	}

	code := m.Run()
	if err := os.RemoveAll(tmpDir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

// E2ETestEnvironment holds a fixture tree and the bundle packed from it.
type E2ETestEnvironment struct {
	FixtureDir string
	Bundle     string
	Stub       string
}

var fixtureFiles = map[string]string{
	"app/main.rb":        "puts :hi\n",
	"app/lib/util.rb":    "module Util; end\n",
	"app/lib/deep/x.txt": "x",
}

func NewE2ETestEnvironment(tmpDir string) (*E2ETestEnvironment, error) {
	env := &E2ETestEnvironment{
		FixtureDir: filepath.Join(tmpDir, "fixture"),
		Bundle:     filepath.Join(tmpDir, "out", "app.embedfs"),
		Stub:       filepath.Join(tmpDir, "out", "embedded_image.go"),
	}
	for name, content := range fixtureFiles {
		p := filepath.Join(env.FixtureDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(env.Bundle), 0o755); err != nil {
		return nil, err
	}

	_, stderr, err := env.Run("pack", filepath.Join(env.FixtureDir, "app"),
		"-o", env.Bundle,
		"--mount-root", "/app",
		"--start", "main.rb",
		"--compression", "zstd",
		"--go-out", env.Stub,
		"--go-package", "assets",
	)
	if err != nil {
		return nil, &packError{stderr: stderr, err: err}
	}
	return env, nil
}

type packError struct {
	stderr string
	err    error
}

func (e *packError) Error() string {
	return "pack failed: " + e.err.Error() + ": " + e.stderr
}

// Run executes the binary and returns its stdout and stderr.
func (env *E2ETestEnvironment) Run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(embedfsBin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestE2EInfo(t *testing.T) {
	out, stderr, err := testEnv.Run("info", testEnv.Bundle)
	require.NoError(t, err, stderr)

	var header struct {
		MountRoot   string `yaml:"mount_root"`
		StartFile   string `yaml:"start_file"`
		Files       int    `yaml:"files"`
		ID          string `yaml:"id"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &header))
	assert.Equal(t, "/app", header.MountRoot)
	assert.Equal(t, "/app/main.rb", header.StartFile)
	assert.Equal(t, 3, header.Files)
	assert.NotEmpty(t, header.ID)
}

func TestE2EEmbedStub(t *testing.T) {
	stub, err := os.ReadFile(testEnv.Stub)
	require.NoError(t, err)
	assert.Contains(t, string(stub), "package assets")
	assert.Contains(t, string(stub), "//go:embed app.embedfs")
	assert.Contains(t, string(stub), "image.RegisterEmbedded(")
}

func TestE2ELs(t *testing.T) {
	out, stderr, err := testEnv.Run("ls", testEnv.Bundle)
	require.NoError(t, err, stderr)
	assert.Equal(t, "lib/\nmain.rb\n", out)

	out, stderr, err = testEnv.Run("ls", testEnv.Bundle, "/app/lib")
	require.NoError(t, err, stderr)
	assert.Equal(t, "deep/\nutil.rb\n", out)

	_, stderr, err = testEnv.Run("ls", testEnv.Bundle, "main.rb")
	assert.Error(t, err)
	assert.Contains(t, stderr, "not a directory")
}

func TestE2ECat(t *testing.T) {
	out, stderr, err := testEnv.Run("cat", testEnv.Bundle, "lib/util.rb")
	require.NoError(t, err, stderr)
	assert.Equal(t, fixtureFiles["app/lib/util.rb"], out)

	out, stderr, err = testEnv.Run("cat", testEnv.Bundle, "/app/lib/deep/../../main.rb")
	require.NoError(t, err, stderr)
	assert.Equal(t, fixtureFiles["app/main.rb"], out)

	_, stderr, err = testEnv.Run("cat", testEnv.Bundle, "missing.rb")
	assert.Error(t, err)
	assert.Contains(t, stderr, "no such file or directory")
}

func TestE2EStat(t *testing.T) {
	out, stderr, err := testEnv.Run("stat", testEnv.Bundle, "main.rb")
	require.NoError(t, err, stderr)

	var st struct {
		Path   string `yaml:"path"`
		Type   string `yaml:"type"`
		Mode   string `yaml:"mode"`
		Size   int64  `yaml:"size"`
		Blocks int64  `yaml:"blocks"`
		Nlink  uint64 `yaml:"nlink"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &st))
	assert.Equal(t, "/app/main.rb", st.Path)
	assert.Equal(t, "file", st.Type)
	assert.Equal(t, "0444", st.Mode)
	assert.Equal(t, int64(len(fixtureFiles["app/main.rb"])), st.Size)
	assert.Equal(t, int64(8), st.Blocks)
	assert.Equal(t, uint64(1), st.Nlink)

	out, stderr, err = testEnv.Run("stat", testEnv.Bundle, "lib")
	require.NoError(t, err, stderr)
	require.NoError(t, yaml.Unmarshal([]byte(out), &st))
	assert.Equal(t, "dir", st.Type)
	assert.Equal(t, "0555", st.Mode)
	assert.Equal(t, int64(1), st.Size)
}

func TestE2EStart(t *testing.T) {
	out, stderr, err := testEnv.Run("start", testEnv.Bundle)
	require.NoError(t, err, stderr)
	assert.Equal(t, "/app/main.rb\n", out)
}

func TestE2EDirectorySource(t *testing.T) {
	out, stderr, err := testEnv.Run("ls", "dir:"+testEnv.FixtureDir)
	require.NoError(t, err, stderr)
	assert.Equal(t, "app/\n", out)

	out, stderr, err = testEnv.Run("cat", testEnv.FixtureDir, "app/lib/deep/x.txt")
	require.NoError(t, err, stderr)
	assert.Equal(t, "x", out)
}

func TestE2ECorruptBundle(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.embedfs")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not a bundle"), 0o644))

	_, stderr, err := testEnv.Run("ls", bad)
	assert.Error(t, err)
	assert.Contains(t, stderr, "not an embedfs bundle")
}

func TestE2EConfigValidation(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "embedfs.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("block_size: 1000\n"), 0o644))

	_, stderr, err := testEnv.Run("--config", cfgFile, "ls", testEnv.Bundle)
	assert.Error(t, err)
	assert.Contains(t, stderr, "block size")
}
