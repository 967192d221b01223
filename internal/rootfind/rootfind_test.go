package rootfind

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
}

func TestFindRustCargoToml(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Cargo.toml"))
	file := filepath.Join(root, "src", "main.rs")
	touch(t, file)

	got := Find(file, "rust", nil)
	require.Equal(t, root, got)
}

func TestFindGlobMarkerCsproj(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "MyApp.csproj"))
	file := filepath.Join(root, "Program.cs")
	touch(t, file)

	got := Find(file, "cs", nil)
	require.Equal(t, root, got)
}

func TestFindFallsBackToVCS(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".git", "HEAD"))
	sub := filepath.Join(root, "pkg")
	file := filepath.Join(sub, "main.go")
	touch(t, file)

	got := Find(file, "unknownlang", nil)
	require.Equal(t, root, got)
}

func TestFindFallsBackToParentDir(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.txt")
	touch(t, file)

	got := Find(file, "unknownlang", nil)
	require.Equal(t, root, got)
}
