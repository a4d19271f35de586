package commands

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/StrategicUser/smcroute/internal/api"
	"github.com/StrategicUser/smcroute/internal/errs"
	"github.com/StrategicUser/smcroute/internal/iface"
	"github.com/StrategicUser/smcroute/internal/mroute"
)

const validServiceConfig = `
[[phyint]]
interface = "eth0"
enable = true
`

type fakeKernelSocket struct {
	closed bool
}

func (f *fakeKernelSocket) AddVIF(vif int, ifindex int, addr netip.Addr, threshold uint8) error {
	return nil
}
func (f *fakeKernelSocket) DelVIF(vif int) error                            { return nil }
func (f *fakeKernelSocket) AddMIF(mif int, ifindex int, threshold uint8) error { return nil }
func (f *fakeKernelSocket) DelMIF(mif int) error                            { return nil }
func (f *fakeKernelSocket) AddRoute(r *mroute.Route) error                  { return nil }
func (f *fakeKernelSocket) DelRoute(r *mroute.Route) error                  { return nil }

func (f *fakeKernelSocket) Close() error {
	f.closed = true
	return nil
}

func writeServiceConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed writing config: %v", err)
	}
}

// startedService brings a ServiceCommand up to the point where routing
// state is installed, with the OS access points replaced by fakes.
func startedService(t *testing.T, snap *fakeSnapshotter, sock *fakeKernelSocket) (*ServiceCommand, string) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "smcroute.toml")
	writeServiceConfig(t, cfgPath, validServiceConfig)

	sc := CreateServiceCommand()
	sc.snapshotter = snap
	sc.openKernelSocket = func(enableIPv6 bool) (mroute.KernelSocket, error) {
		return sock, nil
	}

	if err := sc.Init([]string{}, &AppContext{ConfigPath: cfgPath}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sc.state = &api.State{DumpFormat: sc.cfg.General.DumpFormat}
	if err := sc.startRouting(); err != nil {
		t.Fatalf("startRouting failed: %v", err)
	}
	if !sc.hasRouting() {
		t.Fatal("Expected routing state after startRouting")
	}

	return sc, cfgPath
}

func serviceSnapshotter() *fakeSnapshotter {
	return &fakeSnapshotter{
		tuples: []iface.IfAddr{
			{Name: "eth0", Addr: netip.MustParseAddr("10.0.0.1"), Flags: net.FlagUp | net.FlagMulticast},
		},
	}
}

func TestReload_SnapshotFailureTearsDown(t *testing.T) {
	snap := serviceSnapshotter()
	sock := &fakeKernelSocket{}
	sc, _ := startedService(t, snap, sock)

	snap.err = errors.New("netlink: resource temporarily unavailable")

	err := sc.reload()
	if err == nil {
		t.Fatal("Expected reload to fail")
	}
	if !errs.IsUnrecoverable(err) {
		t.Errorf("Expected an unrecoverable error, got %v", err)
	}
	if sc.hasRouting() {
		t.Error("Expected no manager attached after failed rebuild")
	}
	if !sock.closed {
		t.Error("Expected previous kernel socket to be closed")
	}
}

func TestReload_KernelSocketFailureTearsDown(t *testing.T) {
	snap := serviceSnapshotter()
	sock := &fakeKernelSocket{}
	sc, _ := startedService(t, snap, sock)

	sc.openKernelSocket = func(enableIPv6 bool) (mroute.KernelSocket, error) {
		return nil, errors.New("operation not permitted")
	}

	if err := sc.reload(); err == nil {
		t.Fatal("Expected reload to fail")
	}
	if sc.hasRouting() {
		t.Error("Expected no manager attached after failed rebuild")
	}
	if !sock.closed {
		t.Error("Expected previous kernel socket to be closed")
	}
}

func TestReload_BadConfigKeepsRouting(t *testing.T) {
	snap := serviceSnapshotter()
	sock := &fakeKernelSocket{}
	sc, cfgPath := startedService(t, snap, sock)

	// A config that fails validation aborts the reload before any
	// teardown happens.
	writeServiceConfig(t, cfgPath, `
[[mroute]]
source = "*"
group = "10.0.0.1"
from = "eth0"
to = ["eth1"]
`)

	if err := sc.reload(); err == nil {
		t.Fatal("Expected reload to fail on invalid config")
	}
	if !sc.hasRouting() {
		t.Error("Expected old routing state to survive a config error")
	}
	if sock.closed {
		t.Error("Expected kernel socket to stay open")
	}
}

func TestReload_AppliesNewConfig(t *testing.T) {
	snap := serviceSnapshotter()
	sock := &fakeKernelSocket{}
	sc, cfgPath := startedService(t, snap, sock)

	writeServiceConfig(t, cfgPath, `
[general]
dump_format = "{{name}}"

[[phyint]]
interface = "eth+"
enable = true
`)

	if err := sc.reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !sc.hasRouting() {
		t.Error("Expected routing state after successful reload")
	}
	if !sock.closed {
		t.Error("Expected previous kernel socket to be closed")
	}
	if got := sc.state.DumpFormat; got != "{{name}}" {
		t.Errorf("Expected dump format carried over, got %q", got)
	}
}
