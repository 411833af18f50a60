package buildinfo

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrint(t *testing.T) {
	oldVersion, oldCommit := Version, CommitHash
	t.Cleanup(func() { Version, CommitHash = oldVersion, oldCommit })
	Version, CommitHash = "1.2.3", "abc1234"

	var buf bytes.Buffer
	Print(&buf, "lullabyd")

	out := buf.String()
	for _, want := range []string{"lullabyd", "1.2.3", "abc1234", "OS/Arch"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
