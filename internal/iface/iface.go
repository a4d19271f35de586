package iface

import (
	"net"
	"net/netip"
	"strings"

	"github.com/StrategicUser/smcroute/internal/errs"
	"github.com/StrategicUser/smcroute/internal/log"
	"golang.org/x/sys/unix"
)

const (
	// DefaultThreshold is the TTL threshold assigned to newly discovered
	// interfaces. Packets with a TTL below it are not forwarded.
	DefaultThreshold = 1

	// nameMax is the longest interface name the kernel accepts, without
	// the trailing NUL.
	nameMax = unix.IFNAMSIZ - 1
)

// Iface represents one OS network interface known to the registry.
//
// VIF and MIF are the kernel multicast-forwarding slot numbers for the
// IPv4 and IPv6 tables respectively. They are initialized to -1 and
// written by the forwarding manager after a successful kernel
// registration; the registry itself never registers anything.
type Iface struct {
	Name    string
	Ifindex int
	// Addr is the interface's IPv4 address. The zero value means "not
	// yet assigned": interfaces may legitimately exist and be usable
	// for VIF registration before they have one (e.g. DHCP).
	Addr      netip.Addr
	Flags     net.Flags
	VIF       int
	MIF       int
	Mrdisc    bool
	Threshold uint8
}

// Table is the authoritative registry of network interfaces. It owns all
// entries and is the only writer of their identity fields. Entries are
// append-only: an interface that disappears from the OS keeps its entry.
//
// Table is not safe for concurrent use; the daemon drives it from a
// single control goroutine.
type Table struct {
	snap    Snapshotter
	entries []*Iface
}

// NewTable creates an empty interface table backed by the given
// snapshot provider.
func NewTable(snap Snapshotter) *Table {
	t := &Table{snap: snap}
	t.reset()
	return t
}

func (t *Table) reset() {
	t.entries = make([]*Iface, 0, 1)
}

// append adds an entry at the next free position, doubling the backing
// array when it is full. Entries are allocated individually, so pointers
// handed out before a growth event stay valid after it.
func (t *Table) append(ifc *Iface) {
	if len(t.entries) == cap(t.entries) {
		grown := make([]*Iface, len(t.entries), cap(t.entries)*2)
		copy(grown, t.entries)
		t.entries = grown
	}
	t.entries = append(t.entries, ifc)
}

// Len returns the number of registered interfaces.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns all registered interfaces in table order.
func (t *Table) Entries() []*Iface {
	out := make([]*Iface, len(t.entries))
	copy(out, t.entries)
	return out
}

// Init builds up the registry from the live OS interface set. It clears
// any previous contents first and must be called before any other
// operation. The returned error is unrecoverable (errs.ErrCodeSnapshot)
// if the OS snapshot itself fails.
func (t *Table) Init() error {
	t.reset()
	_, err := t.update(false)
	return err
}

// Refresh re-checks known interfaces for newly gained addresses. It
// never discovers new interfaces; that is what Init is for. Refresh is
// called periodically because on Linux (and possibly other UNICES too)
// an interface cannot join a multicast group without an address.
//
// Returns true if at least one known interface gained an address.
func (t *Table) Refresh() (bool, error) {
	return t.update(true)
}

func (t *Table) update(refreshOnly bool) (bool, error) {
	tuples, err := t.snap.Addrs()
	if err != nil {
		return false, errs.NewSnapshotError("failed retrieving interface addresses", err)
	}

	change := false
	for _, ifa := range tuples {
		// Already added?
		if ifc := t.FindByName(ifa.Name); ifc != nil {
			if !ifc.Addr.IsValid() && ifa.Addr.IsValid() {
				ifc.Addr = ifa.Addr
				change = true
			}
			continue
		}

		if refreshOnly {
			continue
		}

		ifc := &Iface{
			Name:      truncateName(ifa.Name),
			Flags:     ifa.Flags,
			VIF:       -1,
			MIF:       -1,
			Threshold: DefaultThreshold,
		}

		// Only copy the address if the interface has one. VIFs can be
		// enumerated by ifindex alone, useful for DHCP interfaces
		// without any address yet.
		if ifa.Addr.IsValid() {
			ifc.Addr = ifa.Addr
		}

		if idx, err := t.snap.IndexOf(ifc.Name); err != nil {
			log.Debugf("No ifindex for interface %s: %v", ifc.Name, err)
		} else {
			ifc.Ifindex = idx
		}

		t.append(ifc)
	}

	return change, nil
}

// FindByIndex finds an interface by OS interface index. Returns nil if
// no such interface exists.
func (t *Table) FindByIndex(ifindex int) *Iface {
	for _, ifc := range t.entries {
		if ifc.Ifindex == ifindex {
			return ifc
		}
	}

	return nil
}

// FindByName finds an interface by name. Alias interfaces (eth0:0) use
// the same VIF/MIF as their parent, so any :suffix is stripped from the
// query before matching. If several entries share the name, one that is
// already registered with the kernel wins over the last one seen.
func (t *Table) FindByName(ifname string) *Iface {
	if ifname == "" {
		return nil
	}

	if i := strings.IndexByte(ifname, ':'); i >= 0 {
		ifname = ifname[:i]
	}

	var candidate *Iface
	for _, ifc := range t.entries {
		if ifc.Name == ifname {
			if ifc.VIF >= 0 {
				return ifc
			}

			candidate = ifc
		}
	}

	return candidate
}

// FindByVIF finds an interface by its IPv4 forwarding slot. A negative
// vif never matches, since -1 denotes "unassigned".
func (t *Table) FindByVIF(vif int) *Iface {
	for _, ifc := range t.entries {
		if ifc.VIF >= 0 && ifc.VIF == vif {
			return ifc
		}
	}

	return nil
}

// FindByMIF finds an interface by its IPv6 forwarding slot.
func (t *Table) FindByMIF(mif int) *Iface {
	for _, ifc := range t.entries {
		if ifc.MIF >= 0 && ifc.MIF == mif {
			return ifc
		}
	}

	return nil
}

func truncateName(name string) string {
	if len(name) > nameMax {
		return name[:nameMax]
	}
	return name
}
