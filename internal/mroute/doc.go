// Package mroute manages the kernel's multicast forwarding state for
// smcrouted.
//
// The package sits between the interface registry (internal/iface) and
// the kernel MRT API. It resolves configured phyint and route patterns
// to concrete registry entries, allocates VIF/MIF forwarding slots,
// registers them with the kernel, and writes the assigned slot numbers
// back into the registry. Static multicast routes are then installed
// against those slots.
//
// Registration is retried on every apply pass: interfaces that had no
// address or ifindex at startup (DHCP, PPP) are picked up as soon as a
// registry refresh learns their address. Routes whose interfaces could
// not be resolved yet are retried the same way.
package mroute
