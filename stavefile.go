//go:build stave

package main

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

const (
	binary    = "gorulesync"
	binPath   = "bin/" + binary
	mainPkg   = "./cmd/" + binary
	coverFile = "coverage.out"
)

// corePackages hold the cache, session and transport concurrency.
var corePackages = []string{
	"./pkg/rulecache/...",
	"./pkg/session/...",
	"./pkg/rulesource/...",
	"./pkg/position/...",
}

// Default target runs build.
var Default = Build

// Aliases for common targets.
var Aliases = map[string]any{
	"b":     Build,
	"t":     Test.Default,
	"ts":    Test.Short,
	"tc":    Test.Core,
	"l":     Lint.Default,
	"c":     Check,
	"i":     Install,
	"fmt":   Lint.Fmt,
	"smoke": Smoke,
}

// Namespace types group related targets.
type (
	Test st.Namespace
	Lint st.Namespace
	CI   st.Namespace
)

// ---------------------------------------------------------------------------
// Top-level targets
// ---------------------------------------------------------------------------

// Build compiles the gorulesync binary with version info.
// Skips recompilation when source files have not changed.
func Build() error {
	rebuild, err := target.Dir(binPath, "cmd/", "pkg/", "internal/", "go.mod", "go.sum")
	if err != nil {
		return err
	}
	if !rebuild {
		fmt.Println(binPath + " is up to date")
		return nil
	}
	fmt.Println("Building " + binary + "...")
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binPath, mainPkg)
}

// Check runs format, lint, and test sequentially.
func Check() {
	st.SerialDeps(Lint.Fmt, Lint.Default, Test.Default)
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Println("Cleaning build artifacts...")
	for _, path := range []string{"bin", coverFile, "coverage.html"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

// Install installs gorulesync to $GOBIN or $GOPATH/bin.
func Install() error {
	fmt.Println("Installing " + binary + "...")
	return sh.RunV("go", "install", "-ldflags", ldflags(), mainPkg)
}

// Uninstall removes gorulesync from $GOBIN or $GOPATH/bin.
func Uninstall() error {
	path := installedBinary()
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Println(binary + " is not installed")
			return nil
		}
		return fmt.Errorf("remove binary: %w", err)
	}
	fmt.Printf("Removed %s\n", path)
	return nil
}

// Coverage generates an HTML coverage report from the last test run.
func Coverage() error {
	st.Deps(Test.Default)
	return sh.RunV("go", "tool", "cover", "-html="+coverFile, "-o", "coverage.html")
}

// Smoke builds the binary and drives the offline commands against a
// scratch project: init, validate, settings and exitcodes. No rule
// service is contacted.
func Smoke() error {
	st.Deps(Build)

	root, err := os.MkdirTemp("", binary+"-smoke-")
	if err != nil {
		return fmt.Errorf("create scratch project: %w", err)
	}
	defer os.RemoveAll(root)

	bin, err := filepath.Abs(binPath)
	if err != nil {
		return err
	}
	// Keep the developer's own settings and token out of the run.
	env := map[string]string{
		"XDG_CONFIG_HOME":      root,
		"GORULESYNC_API_TOKEN": "",
		"NO_COLOR":             "1",
	}

	steps := [][]string{
		{"init", "--root", root, "--ruleset", "python-security"},
		{"validate", "--root", root},
		{"settings"},
		{"exitcodes"},
	}
	for _, args := range steps {
		fmt.Printf("  %s %s\n", binary, strings.Join(args, " "))
		if err := sh.RunWith(env, bin, args...); err != nil {
			return fmt.Errorf("%s %s: %w", binary, args[0], err)
		}
	}

	fmt.Println("✓ Smoke run passed")
	return nil
}

// ---------------------------------------------------------------------------
// Test namespace
// ---------------------------------------------------------------------------

// Default runs all tests with race detection and coverage.
func (Test) Default() error {
	fmt.Println("Running tests...")
	return gotestsum("pkgname-and-test-fails", raceArgs("./...")...)
}

// Short runs the tests without the race detector, skipping slow ones.
func (Test) Short() error {
	fmt.Println("Running short tests...")
	return gotestsum("pkgname-and-test-fails", "-short", "./...")
}

// Verbose runs all tests with standard-verbose output.
func (Test) Verbose() error {
	return gotestsum("standard-verbose", raceArgs("./...")...)
}

// Core repeats the cache, session and transport tests under the race
// detector to shake out timing-dependent failures.
func (Test) Core() error {
	fmt.Println("Running core tests (race, 3 passes)...")
	args := append([]string{"-race", "-count=3"}, corePackages...)
	return gotestsum("pkgname-and-test-fails", args...)
}

// Bench runs the benchmarks.
func (Test) Bench() error {
	return gotestsum("pkgname-and-test-fails", "-run=^$", "-bench=.", "-benchmem", "./...")
}

// ---------------------------------------------------------------------------
// Lint namespace
// ---------------------------------------------------------------------------

// Default runs golangci-lint with auto-fix.
func (Lint) Default() error {
	fmt.Println("Running linters...")
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// CI runs golangci-lint without auto-fix.
func (Lint) CI() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Fmt formats all Go code.
func (Lint) Fmt() error {
	return sh.RunV("gofmt", "-w", ".")
}

// FmtCheck verifies code formatting without modifying files.
func (Lint) FmtCheck() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return fmt.Errorf("gofmt check failed: %w", err)
	}
	if out != "" {
		return fmt.Errorf("unformatted files:\n%s\nRun 'stave lint:fmt' to fix", out)
	}
	fmt.Println("✓ Code formatting OK")
	return nil
}

// Vet runs go vet.
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// ---------------------------------------------------------------------------
// CI namespace
// ---------------------------------------------------------------------------

// Gate runs every CI check, cheapest first.
func (CI) Gate() error {
	st.SerialDeps(
		Lint.FmtCheck,
		Lint.Vet,
		Lint.CI,
		Build,
		Test.Default,
		Test.Core,
		Smoke,
		CI.ModTidy,
		CI.Cross,
	)
	fmt.Println("\n✓ All CI gate checks passed!")
	return nil
}

// ModTidy fails when 'go mod tidy' would change go.mod or go.sum.
func (CI) ModTidy() error {
	before, err := readModFiles()
	if err != nil {
		return err
	}
	if err := sh.RunV("go", "mod", "tidy"); err != nil {
		return err
	}
	after, err := readModFiles()
	if err != nil {
		return err
	}

	for i := range before {
		if !bytes.Equal(before[i], after[i]) {
			return errors.New("go.mod or go.sum changed after 'go mod tidy'; commit the changes")
		}
	}
	fmt.Println("✓ go.mod/go.sum are tidy")
	return nil
}

// Cross builds the release platforms with cgo disabled. go-enry is
// built without oniguruma, so every target must link statically.
func (CI) Cross() error {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		for _, goarch := range []string{"amd64", "arm64"} {
			env := map[string]string{"GOOS": goos, "GOARCH": goarch, "CGO_ENABLED": "0"}
			fmt.Printf("  Building %s/%s...\n", goos, goarch)
			if err := sh.RunWith(env, "go", "build", "-o", os.DevNull, mainPkg); err != nil {
				return fmt.Errorf("build failed for %s/%s: %w", goos, goarch, err)
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers (unexported, not targets)
// ---------------------------------------------------------------------------

// gotestsum runs go test through the gotestsum tool with the given format.
func gotestsum(format string, testArgs ...string) error {
	args := append([]string{"tool", "gotestsum", "-f", format, "--"}, testArgs...)
	return sh.RunV("go", args...)
}

// raceArgs returns the flags of a full race-enabled, covered run.
func raceArgs(pkgs ...string) []string {
	nCores := cmp.Or(os.Getenv("STAVE_NUM_PROCESSORS"), "4")
	args := []string{"-v", "-race", "-p", nCores, "-parallel", nCores}
	args = append(args, pkgs...)
	return append(args, "-coverprofile="+coverFile, "-covermode=atomic")
}

func readModFiles() ([2][]byte, error) {
	var files [2][]byte
	for i, name := range []string{"go.mod", "go.sum"} {
		content, err := os.ReadFile(name)
		if err != nil {
			return files, fmt.Errorf("read %s: %w", name, err)
		}
		files[i] = content
	}
	return files, nil
}

// gitOutput runs a git command and returns trimmed stdout, or empty on error.
func gitOutput(args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// ldflags returns the linker flags for version injection.
func ldflags() string {
	version := cmp.Or(gitOutput("describe", "--tags", "--always", "--dirty"), "dev")
	commit := cmp.Or(gitOutput("rev-parse", "--short", "HEAD"), "none")
	date := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s", version, commit, date)
}

// installedBinary returns the path where go install places the binary.
func installedBinary() string {
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		return filepath.Join(gobin, binary)
	}
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, _ := os.UserHomeDir()
		gopath = filepath.Join(home, "go")
	}
	return filepath.Join(gopath, "bin", binary)
}
