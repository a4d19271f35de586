package config

// Config is the top-level smcrouted configuration.
type Config struct {
	// General holds general daemon settings.
	General *GeneralConfig `toml:"general"`
	// Phyint declares the interfaces to enable for multicast routing. Patterns use iptables syntax: a trailing "+" matches any interface with that prefix.
	Phyint []*PhyintConfig `toml:"phyint,omitempty"`
	// MRoutes are static multicast routes. You can add multiple routes.
	MRoutes []*MRouteConfig `toml:"mroute,omitempty"`

	absConfigFilePath string
}

type GeneralConfig struct {
	// APIListen is the status API listen address (empty = API disabled).
	APIListen string `toml:"api_listen" json:"api_listen" validate:"hostport_or_empty"`
	// RefreshIntervalSeconds is the interval for re-checking known interfaces for newly gained addresses (0 = disabled, default: 10). Interfaces cannot be used for multicast routing on most systems until they have an address.
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds" json:"refresh_interval_seconds" validate:"gte=0"`
	// EnableIPv6 enables the IPv6 multicast routing table (MIF registration). When false, all interfaces keep their IPv6 slot unassigned.
	EnableIPv6 bool `toml:"enable_ipv6" json:"enable_ipv6"`
	// DumpFormat is an optional template for the text interface dump. Available variables: {{name}}, {{ifindex}}, {{addr}}, {{vif}}, {{mif}}. Empty = fixed-width default format.
	DumpFormat string `toml:"dump_format" json:"dump_format"`
}

type PhyintConfig struct {
	// Interface is an interface name or wildcard pattern (e.g. "eth0" or "vlan+").
	Interface string `toml:"interface" json:"interface" validate:"required,ifpattern"`
	// Enable registers matching interfaces with the kernel multicast-forwarding tables.
	Enable bool `toml:"enable" json:"enable"`
	// Mrdisc enables multicast router discovery announcements on matching interfaces.
	Mrdisc bool `toml:"mrdisc" json:"mrdisc"`
	// TTLThreshold is the minimum TTL a packet must have to be forwarded out of this interface (default: 1).
	TTLThreshold uint8 `toml:"ttl_threshold" json:"ttl_threshold"`
}

type MRouteConfig struct {
	// Source is the sender address of the route, or "*" for a (*,G) route matching any sender.
	Source string `toml:"source" json:"source" validate:"required,mcast_source"`
	// Group is the multicast group address of the route.
	Group string `toml:"group" json:"group" validate:"required,mcast_group"`
	// From is the inbound interface name or pattern.
	From string `toml:"from" json:"from" validate:"required,ifpattern"`
	// To lists the outbound interface names or patterns.
	To []string `toml:"to" json:"to" validate:"required,min=1,dive,ifpattern"`
}

// IsIPv6 reports whether the route belongs to the IPv6 forwarding table.
func (r *MRouteConfig) IsIPv6() bool {
	for i := 0; i < len(r.Group); i++ {
		if r.Group[i] == ':' {
			return true
		}
	}
	return false
}

// IsAnySource reports whether the route is a (*,G) route.
func (r *MRouteConfig) IsAnySource() bool {
	return r.Source == "*"
}
