package test

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getProjectRoot returns the project root directory based on this test file's location.
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Dir(filepath.Dir(filename))
}

// walkGoFiles calls fn for every Go file in the project. Hidden directories
// and directories ignored by the go tool are not visited.
func walkGoFiles(t *testing.T, fn func(path string)) {
	t.Helper()
	err := filepath.WalkDir(getProjectRoot(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != getProjectRoot() && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			fn(path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}
}

// TestNoSkippedTests ensures no test files skip tests.
// Skipped tests hide failures - tests should either pass or fail, never skip.
func TestNoSkippedTests(t *testing.T) {
	forbiddenPatterns := []string{
		"t.Skip(",
		"t.SkipNow(",
		"testing.Short()",
	}

	var violations []string
	walkGoFiles(t, func(path string) {
		if !strings.HasSuffix(path, "_test.go") || strings.HasSuffix(path, "quality_test.go") {
			return
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", path, err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if strings.HasPrefix(strings.TrimSpace(line), "//") {
				continue
			}
			for _, pattern := range forbiddenPatterns {
				if strings.Contains(line, pattern) {
					violations = append(violations, fmt.Sprintf("%s:%d: contains forbidden pattern '%s'", path, lineNum, pattern))
				}
			}
		}
		if err := scanner.Err(); err != nil {
			t.Fatalf("Error scanning %s: %v", path, err)
		}
	})

	if len(violations) > 0 {
		t.Errorf("Found %d test skip violation(s):", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}

// TestEveryPackageHasTests ensures each library package ships a test file.
func TestEveryPackageHasTests(t *testing.T) {
	sources := map[string]bool{}
	tested := map[string]bool{}

	walkGoFiles(t, func(path string) {
		rel, err := filepath.Rel(getProjectRoot(), path)
		if err != nil {
			t.Fatalf("Failed to relativize %s: %v", path, err)
		}
		if !strings.HasPrefix(rel, "pkg"+string(filepath.Separator)) && !strings.HasPrefix(rel, "internal"+string(filepath.Separator)) {
			return
		}
		dir := filepath.Dir(rel)
		if strings.HasSuffix(path, "_test.go") {
			tested[dir] = true
		} else {
			sources[dir] = true
		}
	})

	if len(sources) == 0 {
		t.Fatal("No packages found - something is wrong with package discovery")
	}

	for dir := range sources {
		if !tested[dir] {
			t.Errorf("Package %s has no tests", dir)
		}
	}
	t.Logf("Checked %d packages", len(sources))
}
