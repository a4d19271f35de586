package iface

import (
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// IfAddr is one tuple of an OS interface-address snapshot: an interface
// (or alias) name, its IPv4 address if it has one, and the kernel flags
// of the underlying link.
type IfAddr struct {
	Name  string
	Addr  netip.Addr
	Flags net.Flags
}

// Snapshotter yields the OS view of the current interface set. The
// production implementation talks netlink; tests substitute their own.
type Snapshotter interface {
	// Addrs returns one tuple per link (without address, so that
	// address-less interfaces are discoverable) plus one tuple per
	// assigned IPv4 address. Alias addresses surface under their label
	// name, e.g. "eth0:0".
	Addrs() ([]IfAddr, error)

	// IndexOf resolves an interface name to its kernel ifindex.
	IndexOf(name string) (int, error)
}

// NetlinkSnapshotter is the production Snapshotter, backed by the
// kernel's netlink interface dumps.
type NetlinkSnapshotter struct{}

func (NetlinkSnapshotter) Addrs() ([]IfAddr, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}

	var tuples []IfAddr
	for _, link := range links {
		attrs := link.Attrs()
		tuples = append(tuples, IfAddr{Name: attrs.Name, Flags: attrs.Flags})

		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			return nil, err
		}

		for _, addr := range addrs {
			ip, ok := netip.AddrFromSlice(addr.IP.To4())
			if !ok {
				continue
			}

			// Secondary addresses added with a label show up as
			// legacy eth0:0 style aliases.
			name := attrs.Name
			if addr.Label != "" {
				name = addr.Label
			}

			tuples = append(tuples, IfAddr{Name: name, Addr: ip, Flags: attrs.Flags})
		}
	}

	return tuples, nil
}

func (NetlinkSnapshotter) IndexOf(name string) (int, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, err
	}

	return link.Attrs().Index, nil
}
