package mroute

import "net/netip"

const (
	// MaxVIFs is the size of the kernel's IPv4 virtual-interface table.
	MaxVIFs = 32
	// MaxMIFs is the size of the kernel's IPv6 counterpart.
	MaxMIFs = 32
)

// Route is one multicast forwarding entry: traffic from Source (or any
// source) to Group arriving on the Inbound slot is forwarded out of
// every Outbound slot whose TTL threshold the packet clears.
type Route struct {
	// Source is the sender address. The zero Addr denotes a (*,G)
	// route matching any sender.
	Source   netip.Addr   `json:"source"`
	Group    netip.Addr   `json:"group"`
	Inbound  int          `json:"inbound"`
	Outbound map[int]uint8 `json:"outbound"`
}

// IsIPv6 reports whether the route lives in the IPv6 forwarding table.
func (r *Route) IsIPv6() bool {
	return r.Group.Is6() && !r.Group.Is4In6()
}

// KernelSocket is the kernel's multicast-forwarding control surface:
// slot registration and forwarding-cache manipulation for both address
// families. The production implementation speaks the MRT API over raw
// IGMP/ICMPv6 sockets; tests substitute a recording mock.
type KernelSocket interface {
	AddVIF(vif int, ifindex int, addr netip.Addr, threshold uint8) error
	DelVIF(vif int) error
	AddMIF(mif int, ifindex int, threshold uint8) error
	DelMIF(mif int) error
	AddRoute(r *Route) error
	DelRoute(r *Route) error
	Close() error
}
