package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("resolve repo root failed: %v", err)
	}
	return root
}

func buildCLI(t *testing.T, home string) (string, []string) {
	t.Helper()
	root := repoRoot(t)
	goModCache := filepath.Join(os.TempDir(), "emuinject-gomodcache")
	goCache := filepath.Join(os.TempDir(), "emuinject-gocache")
	if err := os.MkdirAll(goModCache, 0o755); err != nil {
		t.Fatalf("create mod cache failed: %v", err)
	}
	if err := os.MkdirAll(goCache, 0o755); err != nil {
		t.Fatalf("create go cache failed: %v", err)
	}

	env := append(os.Environ(),
		"HOME="+home,
		"GOMODCACHE="+goModCache,
		"GOCACHE="+goCache,
	)
	bin := filepath.Join(home, "bin", "emuinject")
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		t.Fatalf("create bin dir failed: %v", err)
	}
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/emuinject")
	cmd.Dir = root
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build cli failed: %v\n%s", err, string(out))
	}
	return bin, env
}

func runCLI(t *testing.T, bin string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %s\nargs=%v\noutput=%s", err, args, string(out))
	}
	return string(out)
}

// runCLIExpectFail returns the combined output and exit code of a
// command that must fail.
func runCLIExpectFail(t *testing.T, bin string, env []string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected command to fail\nargs=%v\noutput=%s", args, string(out))
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("command did not run: %v", err)
	}
	return string(out), exitErr.ExitCode()
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func assertContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}
