package iface

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/StrategicUser/smcroute/internal/errs"
)

type failingWriter struct {
	n int // writes to accept before failing
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errors.New("broken pipe")
	}
	w.n--
	return len(p), nil
}

func dumpTable() *Table {
	tbl := NewTable(&mockSnapshotter{})
	tbl.append(&Iface{Name: "lo", Ifindex: 1, VIF: -1, MIF: -1})
	tbl.append(&Iface{Name: "eth0", Ifindex: 2, Addr: addr("10.0.0.5"), VIF: 0, MIF: -1})
	return tbl
}

func TestDump_FixedWidthLines(t *testing.T) {
	tbl := dumpTable()

	var buf bytes.Buffer
	if err := tbl.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := "lo                     1   -1   -1\n" +
		"eth0                   2    0   -1\n"
	if buf.String() != want {
		t.Errorf("Unexpected dump output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestDump_WriteFailureAborts(t *testing.T) {
	tbl := dumpTable()

	err := tbl.Dump(&failingWriter{n: 1})
	if err == nil {
		t.Fatal("Expected error from failing writer")
	}
	var derr *errs.Error
	if !errors.As(err, &derr) || derr.Code != errs.ErrCodeIPC {
		t.Errorf("Expected IPC-coded error, got %v", err)
	}
}

func TestDumpFormat(t *testing.T) {
	tbl := dumpTable()

	var buf bytes.Buffer
	if err := tbl.DumpFormat(&buf, "{{name}} vif={{vif}} addr={{addr}}"); err != nil {
		t.Fatalf("DumpFormat failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "lo vif=-1 addr=" {
		t.Errorf("Unexpected first line: %q", lines[0])
	}
	if lines[1] != "eth0 vif=0 addr=10.0.0.5" {
		t.Errorf("Unexpected second line: %q", lines[1])
	}
}
