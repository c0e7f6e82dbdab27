// Package harness runs every Rack source fixture under testdata and
// diffs its compiled, assembled and executed stdout+stderr against a
// golden file (spec §2 "Test harness"). It is out-of-core-scope
// integration machinery, not exercised by the compiler's own unit
// tests.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/rack-lang/rackc/driver"
)

// Fixture is a single source file paired with the golden output file
// it must reproduce.
type Fixture struct {
	Name       string
	SourcePath string
	GoldenPath string
}

// Discover finds every *.rack file under fixturesDir and pairs it with
// its same-named *.txt file under goldenDir.
func Discover(fixturesDir, goldenDir string) ([]Fixture, error) {
	entries, err := os.ReadDir(fixturesDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fixturesDir, err)
	}

	var fixtures []Fixture
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rack") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".rack")
		fixtures = append(fixtures, Fixture{
			Name:       base,
			SourcePath: filepath.Join(fixturesDir, e.Name()),
			GoldenPath: filepath.Join(goldenDir, base+".txt"),
		})
	}
	return fixtures, nil
}

// Run builds, links and runs every fixture concurrently (spec §5: "The
// test harness may spawn one OS thread per fixture"), then diffs
// captured stdout+stderr against its golden file with go-cmp.
// Failures across all fixtures are aggregated rather than aborting at
// the first one, since unlike the compiler itself (spec §7 "no
// accumulation") the harness's whole job is to report every mismatch
// in one run.
func Run(fixtures []Fixture) error {
	var (
		g    errgroup.Group
		errs = make([]error, len(fixtures))
	)

	for i, fx := range fixtures {
		i, fx := i, fx
		g.Go(func() error {
			errs[i] = runOne(fx)
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func runOne(fx Fixture) error {
	dir, err := os.MkdirTemp("", "rackc-harness-*")
	if err != nil {
		return fmt.Errorf("%s: %w", fx.Name, err)
	}
	defer os.RemoveAll(dir)

	binPath := filepath.Join(dir, "out")
	if _, err := driver.Build(fx.SourcePath, driver.Options{
		Target: driver.TargetLinuxELF,
		Out:    binPath,
		Quiet:  true,
	}); err != nil {
		return fmt.Errorf("%s: build: %w", fx.Name, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(binPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: run: %w", fx.Name, err)
	}

	golden, err := os.ReadFile(fx.GoldenPath)
	if err != nil {
		return fmt.Errorf("%s: reading golden: %w", fx.Name, err)
	}

	got := stdout.String() + stderr.String()
	if diff := cmp.Diff(string(golden), got); diff != "" {
		return fmt.Errorf("%s: output mismatch (-want +got):\n%s", fx.Name, diff)
	}
	return nil
}
