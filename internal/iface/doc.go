// Package iface is the authoritative registry of network interfaces for
// the multicast routing daemon.
//
// The registry discovers interfaces from the OS, tracks which of them
// are bound to kernel multicast-forwarding slots (VIF for IPv4, MIF for
// IPv6, separate numbering spaces), and resolves interface-name patterns
// from the configuration to concrete, currently-routable interfaces.
//
// # Architecture
//
// The package is organized around a few small pieces:
//
//   - Table: growable, append-only array of interface entries; every
//     multicast-routing decision starts from it
//   - Snapshotter: OS discovery primitive (netlink in production,
//     mocks in tests)
//   - Init/Refresh: reconciliation against the live OS interface set
//   - FindBy*: exact lookup by ifindex, name, or forwarding slot
//   - MatchCursor + Match*ByName: resumable wildcard pattern matching
//
// # Discovery
//
// Init performs full discovery; Refresh only re-checks known interfaces
// for newly gained addresses. Refresh runs periodically since many
// link types (DHCP, PPP) obtain an address well after the interface
// appears, and an interface without one cannot join multicast groups
// on most systems.
//
// # Pattern matching
//
// Patterns use iptables syntax: a trailing '+' performs a prefix match,
// anything else matches exactly. Matching is resumable through an
// explicit MatchCursor owned by the caller:
//
//	var c iface.MatchCursor
//	for vif, ifc := tbl.MatchVIFByName("eth+", &c); ifc != nil; vif, ifc = tbl.MatchVIFByName("eth+", &c) {
//	    log.Debugf("Using %s (vif %d)", ifc.Name, vif)
//	}
//	if c.MatchCount == 0 {
//	    log.Warnf("No usable interfaces match eth+")
//	}
//
// All lookups are linear scans. Interface counts are tens, not
// millions, and none of this is on a per-packet path.
package iface
