package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const storageLog = `[01.05.25 00:30:39,701] INFO  RawService: connecting to storage
[01.05.25 00:30:39,746] RawService.UpdateStorageRaw.DataSet:
877000000002265;01.05.2025 0:30:39;8507,6580;0,8315;14,5;132,2;0;ru_2025.02.25.32047;524288;
877000000002266;01.05.2025 0:30:22;11760,0620;0,735;15;136,7;0;ru_2025.02.25.32047;524288;
[01.05.25 00:30:40,002] INFO  RawService: update complete
`

const noBlockLog = `[01.05.25 00:30:39,701] INFO  RawService: connecting to storage
[01.05.25 00:30:40,002] INFO  RawService: update complete
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return path
}

// runCommand executes cmd with args and returns its stdout. ExitCode is
// reset first.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	ExitCode = 0
	t.Cleanup(func() { ExitCode = 0 })

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
