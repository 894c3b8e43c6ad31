package capture

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/64BitAsura/teltap/internal/testutil"
)

func TestSpoolRoundTrip(t *testing.T) {
	dir := t.TempDir()

	spool, err := NewSpool(dir, "router1")
	testutil.AssertNoError(t, err)

	messages := [][]byte{
		[]byte("interface up"),
		[]byte(""),
		bytes.Repeat([]byte{0xff}, 300),
	}
	for _, msg := range messages {
		testutil.AssertNoError(t, spool.Append(msg))
	}
	testutil.AssertNoError(t, spool.Close())

	got, err := ReadAll(spool.Path())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(messages), len(got))
	for i := range messages {
		if !bytes.Equal(messages[i], got[i]) {
			t.Errorf("frame %d: expected %v, got %v", i, messages[i], got[i])
		}
	}
}

func TestSpoolNaming(t *testing.T) {
	dir := t.TempDir()

	spool, err := NewSpool(dir, "router1")
	testutil.AssertNoError(t, err)
	defer spool.Close()

	name := filepath.Base(spool.Path())
	if !strings.HasPrefix(name, "router1-") || !strings.HasSuffix(name, ".spool.zst") {
		t.Errorf("unexpected spool file name %q", name)
	}
}

func TestSpoolAppendAfterClose(t *testing.T) {
	spool, err := NewSpool(t.TempDir(), "router1")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, spool.Close())

	if err := spool.Append([]byte("late")); err == nil {
		t.Error("expected an error appending to a closed spool")
	}
	// Closing twice is fine.
	testutil.AssertNoError(t, spool.Close())
}

func TestSpoolCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "spool")

	spool, err := NewSpool(dir, "router1")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, spool.Close())
}
