//go:build mage

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "funnelscope"

// The release version is embedded from cmd/funnelscope/VERSION.
const ldflags = "-s -w"

// Build builds Funnelscope for Linux with Green Tea GC
func Build() error {
	fmt.Println("Building Funnelscope for Linux with Go 1.25 + Green Tea GC...")
	env := map[string]string{
		"GOOS":         "linux",
		"GOARCH":       "amd64",
		"GOEXPERIMENT": "greenteagc",
		"CGO_ENABLED":  "0",
	}
	return sh.RunWith(env, "go", "build", "-ldflags", ldflags, "-o", binary+"-linux-amd64", "./cmd/funnelscope")
}

// BuildLocal builds Funnelscope for current platform
func BuildLocal() error {
	fmt.Printf("Building Funnelscope for %s/%s...\n", runtime.GOOS, runtime.GOARCH)
	return sh.Run("go", "build", "-ldflags", ldflags, "-o", binary, "./cmd/funnelscope")
}

// Test runs tests
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "./...")
}

// TestDB runs the Postgres integration tests against FUNNELSCOPE_TEST_DATABASE_URL
func TestDB() error {
	if os.Getenv("FUNNELSCOPE_TEST_DATABASE_URL") == "" {
		return fmt.Errorf("FUNNELSCOPE_TEST_DATABASE_URL is not set")
	}
	fmt.Println("Running database integration tests...")
	return sh.Run("go", "test", "-v", "-run", "Integration", "./internal/database/...")
}

// Cover writes a coverage profile and prints the per-function summary
func Cover() error {
	if err := sh.Run("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning build artifacts...")
	for _, path := range []string{binary, binary + "-linux-amd64", "coverage.out"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Update upgrades all Go dependencies
func Update() error {
	fmt.Println("Updating dependencies...")
	if err := sh.Run("go", "get", "-u", "./..."); err != nil {
		return err
	}
	return sh.Run("go", "mod", "tidy")
}

// Fmt runs gofmt on all Go files
func Fmt() error {
	fmt.Println("Formatting code...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet on all Go files
func Vet() error {
	fmt.Println("Vetting code...")
	return sh.Run("go", "vet", "./...")
}

// Bench runs benchmarks
func Bench() error {
	fmt.Println("Running benchmarks...")
	return sh.Run("go", "test", "-bench=.", "-run=^$", "./...")
}

// Deps downloads dependencies
func Deps() error {
	fmt.Println("Downloading dependencies...")
	return sh.Run("go", "mod", "download")
}

// Tidy tidies go.mod
func Tidy() error {
	fmt.Println("Tidying go.mod...")
	return sh.Run("go", "mod", "tidy")
}

// Doctor builds locally and checks the bundled snapshot
func Doctor() error {
	mg.Deps(BuildLocal)
	return sh.RunV("./"+binary, "doctor")
}

// CI runs all checks for continuous integration
func CI() error {
	mg.SerialDeps(Deps, Fmt, Vet, Test)
	fmt.Println("All CI checks passed!")
	return nil
}
