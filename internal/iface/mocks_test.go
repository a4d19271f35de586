package iface

import (
	"fmt"
	"net"
	"net/netip"
)

// Mock types for testing

type mockSnapshotter struct {
	tuples  []IfAddr
	indexes map[string]int
	err     error
}

func (m *mockSnapshotter) Addrs() ([]IfAddr, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tuples, nil
}

func (m *mockSnapshotter) IndexOf(name string) (int, error) {
	if idx, ok := m.indexes[name]; ok {
		return idx, nil
	}
	return 0, fmt.Errorf("no such interface: %s", name)
}

func addr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func linkTuple(name string) IfAddr {
	return IfAddr{Name: name, Flags: net.FlagUp | net.FlagMulticast}
}

func addrTuple(name, ip string) IfAddr {
	return IfAddr{Name: name, Addr: addr(ip), Flags: net.FlagUp | net.FlagMulticast}
}
