package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testdataDir() string {
	testdata := "../../testdata"
	if _, err := os.Stat(testdata); os.IsNotExist(err) {
		testdata = "../../../testdata"
	}
	return testdata
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking on Windows
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	// Reset flags to prevent accumulation between tests
	verbose = false
	boardOutput, boardThickness, boardMinDrill = "", 0, 0
	boardCmd.Flags().Lookup("min-drill").Changed = false
	infoCull = false
	mergeOutput, mergeCull = "", false
	mergeCmd.Flags().Lookup("output").Changed = false

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	// Restore stdout and wait for reader
	w.Close()
	os.Stdout = old
	<-done

	return buf.String(), err
}

func TestBoardE2E(t *testing.T) {
	bracket := filepath.Join(testdataDir(), "boards", "bracket.kicad_pcb")
	dir := t.TempDir()

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "default drill limit keeps the via",
			args: []string{"board", bracket, "-o", filepath.Join(dir, "a.igs")},
			wantContain: []string{
				"Size: 40.000 x 30.000 x 1.200 mm",
				"Edge segments: 5",
				"Cutouts: 3",
				"Drills: 4 (0 below limit, 0 rejected)",
				"20 surfaces",
			},
		},
		{
			name: "drill limit and thickness flags",
			args: []string{"board", bracket, "-o", filepath.Join(dir, "b.igs.gz"), "--min-drill", "0.5", "--thickness", "2", "-v"},
			wantContain: []string{
				"x 2.000 mm",
				"Drills: 3 (1 below limit, 0 rejected)",
				"19 surfaces",
			},
		},
		{
			name:    "missing board",
			args:    []string{"board", filepath.Join(dir, "nope.kicad_pcb")},
			wantErr: true,
		},
		{
			name:    "no arguments",
			args:    []string{"board"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestInfoAndMergeE2E(t *testing.T) {
	bracket := filepath.Join(testdataDir(), "boards", "bracket.kicad_pcb")
	dir := t.TempDir()
	model := filepath.Join(dir, "bracket.igs")
	packed := filepath.Join(dir, "bracket.igs.zst")
	merged := filepath.Join(dir, "merged.igs")

	if _, err := run(t, "board", bracket, "-o", model, "--min-drill", "0.5"); err != nil {
		t.Fatalf("board: %v", err)
	}
	if _, err := run(t, "board", bracket, "-o", packed, "--min-drill", "0.5"); err != nil {
		t.Fatalf("board: %v", err)
	}

	output, err := run(t, "info", model)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{
		"Name: bracket.igs",
		"Units: MM",
		"Trimmed Parametric Surface       19",
		"Orphans: 0",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("info output missing %q\nGot:\n%s", want, output)
		}
	}

	output, err = run(t, "info", "--cull", packed)
	if err != nil {
		t.Fatalf("info --cull: %v", err)
	}
	if !strings.Contains(output, "Culled 0 entities") {
		t.Errorf("info --cull output:\n%s", output)
	}

	output, err = run(t, "merge", "-o", merged, model, packed)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(output, "Merged 2 files") {
		t.Errorf("merge output:\n%s", output)
	}

	output, err = run(t, "info", merged)
	if err != nil {
		t.Fatalf("info merged: %v", err)
	}
	if !strings.Contains(output, "Trimmed Parametric Surface       38") {
		t.Errorf("merged model should hold both boards\nGot:\n%s", output)
	}

	if _, err := run(t, "merge", model); err == nil {
		t.Errorf("merge without --output should fail")
	}
}
