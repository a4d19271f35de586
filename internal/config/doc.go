// Package config handles configuration file parsing and validation for
// smcrouted.
//
// This package reads TOML configuration files and provides strongly-typed
// structures for accessing configuration data.
//
// # Configuration Structure
//
// The configuration file defines:
//   - General settings (status API address, interface refresh interval,
//     IPv6 routing table support)
//   - Phyint declarations: which interfaces to register for multicast
//     forwarding, by exact name or wildcard pattern
//   - Static multicast routes (source, group, inbound and outbound
//     interfaces)
//
// # Example
//
//	[general]
//	api_listen = "127.0.0.1:8080"
//	refresh_interval_seconds = 10
//
//	[[phyint]]
//	interface = "eth0"
//	enable = true
//
//	[[phyint]]
//	interface = "vlan+"
//	enable = true
//	ttl_threshold = 3
//
//	[[mroute]]
//	source = "10.0.0.1"
//	group = "225.1.2.3"
//	from = "eth0"
//	to = ["vlan+"]
//
// Interface patterns use iptables syntax: a trailing '+' performs a
// prefix match against live interface names.
package config
