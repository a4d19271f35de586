package mroute

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/StrategicUser/smcroute/internal/iface"
)

// Mock types for testing

type mockSnapshotter struct {
	tuples  []iface.IfAddr
	indexes map[string]int
}

func (m *mockSnapshotter) Addrs() ([]iface.IfAddr, error) {
	return m.tuples, nil
}

func (m *mockSnapshotter) IndexOf(name string) (int, error) {
	if idx, ok := m.indexes[name]; ok {
		return idx, nil
	}
	return 0, fmt.Errorf("no such interface: %s", name)
}

type vifReg struct {
	ifindex   int
	addr      netip.Addr
	threshold uint8
}

type mockKernelSocket struct {
	vifs    map[int]vifReg
	mifs    map[int]int // mif -> ifindex
	routes  []*Route
	deleted []*Route
	failVIF bool
	closed  bool
}

func newMockKernelSocket() *mockKernelSocket {
	return &mockKernelSocket{
		vifs: make(map[int]vifReg),
		mifs: make(map[int]int),
	}
}

func (m *mockKernelSocket) AddVIF(vif, ifindex int, addr netip.Addr, threshold uint8) error {
	if m.failVIF {
		return errors.New("MRT_ADD_VIF: operation not permitted")
	}
	m.vifs[vif] = vifReg{ifindex: ifindex, addr: addr, threshold: threshold}
	return nil
}

func (m *mockKernelSocket) DelVIF(vif int) error {
	delete(m.vifs, vif)
	return nil
}

func (m *mockKernelSocket) AddMIF(mif, ifindex int, threshold uint8) error {
	m.mifs[mif] = ifindex
	return nil
}

func (m *mockKernelSocket) DelMIF(mif int) error {
	delete(m.mifs, mif)
	return nil
}

func (m *mockKernelSocket) AddRoute(r *Route) error {
	m.routes = append(m.routes, r)
	return nil
}

func (m *mockKernelSocket) DelRoute(r *Route) error {
	m.deleted = append(m.deleted, r)
	return nil
}

func (m *mockKernelSocket) Close() error {
	m.closed = true
	return nil
}

func testTable(snap *mockSnapshotter) *iface.Table {
	tbl := iface.NewTable(snap)
	if err := tbl.Init(); err != nil {
		panic(err)
	}
	return tbl
}

func linkTuple(name string) iface.IfAddr {
	return iface.IfAddr{Name: name, Flags: net.FlagUp | net.FlagMulticast}
}

func addrTuple(name, ip string) iface.IfAddr {
	return iface.IfAddr{Name: name, Addr: netip.MustParseAddr(ip), Flags: net.FlagUp | net.FlagMulticast}
}
