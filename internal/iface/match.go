package iface

import (
	"strings"

	"github.com/StrategicUser/smcroute/internal/log"
)

// Wildcard is the pattern terminator denoting a prefix match, following
// iptables syntax: "eth+" matches eth0, eth1, eth0.100, ...
const Wildcard = '+'

// MatchCursor holds the iteration state of one pattern-matching walk
// over the table: the next position to examine and a running count of
// confirmed matches. A cursor belongs to a single caller; its zero
// value is ready to use.
//
// MatchByName counts every name match provisionally; the VIF/MIF
// variants take the count back down for matches that lack a usable
// forwarding slot. After a full walk MatchCount therefore equals the
// number of interfaces that matched the pattern AND possess a slot,
// which callers use to detect rules that match nothing usable.
type MatchCursor struct {
	pos        int
	MatchCount int
}

// Reset rewinds the cursor for a new walk.
func (c *MatchCursor) Reset() {
	*c = MatchCursor{}
}

// IsWildcard reports whether an interface name pattern is a wildcard.
func IsWildcard(ifname string) bool {
	return ifname != "" && ifname[len(ifname)-1] == Wildcard
}

// MatchByName returns the next interface matching the name pattern, or
// nil if no (more) interfaces match. The cursor is advanced past the
// returned entry so repeated calls walk the whole table.
func (t *Table) MatchByName(ifname string, c *MatchCursor) *Iface {
	if ifname == "" {
		return nil
	}

	wildcard := IsWildcard(ifname)
	prefix := ifname
	if wildcard {
		prefix = ifname[:len(ifname)-1]
	}

	for ; c.pos < len(t.entries); c.pos++ {
		ifc := t.entries[c.pos]

		log.Debugf("Check if %s matches %s ...", ifname, ifc.Name)
		if wildcard && !strings.HasPrefix(ifc.Name, prefix) {
			continue
		}
		if !wildcard && ifc.Name != ifname {
			continue
		}

		log.Debugf("Found match for %s", ifname)
		c.pos++
		c.MatchCount++

		return ifc
	}

	log.Debugf("No matches for %s!", ifname)
	return nil
}

// MatchVIFByName returns the next interface matching the name pattern
// that is registered in the kernel's IPv4 forwarding table, along with
// its slot. Name matches without a slot are skipped and removed from
// the cursor's count. Returns (-1, nil) when the table is exhausted.
func (t *Table) MatchVIFByName(ifname string, c *MatchCursor) (int, *Iface) {
	for {
		ifc := t.MatchByName(ifname, c)
		if ifc == nil {
			return -1, nil
		}

		if ifc.VIF >= 0 {
			return ifc.VIF, ifc
		}

		c.MatchCount--
	}
}

// MatchMIFByName is MatchVIFByName for the IPv6 forwarding table.
func (t *Table) MatchMIFByName(ifname string, c *MatchCursor) (int, *Iface) {
	for {
		ifc := t.MatchByName(ifname, c)
		if ifc == nil {
			return -1, nil
		}

		if ifc.MIF >= 0 {
			return ifc.MIF, ifc
		}

		c.MatchCount--
	}
}
