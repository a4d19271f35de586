package mroute

import (
	"net/netip"
	"sort"

	"github.com/StrategicUser/smcroute/internal/config"
	"github.com/StrategicUser/smcroute/internal/errs"
	"github.com/StrategicUser/smcroute/internal/iface"
	"github.com/StrategicUser/smcroute/internal/log"
	"github.com/StrategicUser/smcroute/internal/utils"
)

// Manager binds the interface registry to the kernel's multicast
// forwarding tables. It resolves configured interface patterns through
// the registry's matcher, allocates VIF/MIF slots, registers them with
// the kernel and writes the resulting slot numbers back into the
// matched registry entries. The registry itself never registers
// anything; Manager is its only slot writer.
type Manager struct {
	tbl    *iface.Table
	sock   KernelSocket
	ipv6   bool
	vifs   utils.BitSet
	mifs   utils.BitSet
	routes map[string]*Route
}

// NewManager creates a forwarding manager over the given registry and
// kernel socket. When enableIPv6 is false, all interfaces keep their
// MIF unassigned and IPv6 routes are rejected.
func NewManager(tbl *iface.Table, sock KernelSocket, enableIPv6 bool) *Manager {
	return &Manager{
		tbl:    tbl,
		sock:   sock,
		ipv6:   enableIPv6,
		vifs:   utils.NewBitSet(MaxVIFs),
		mifs:   utils.NewBitSet(MaxMIFs),
		routes: make(map[string]*Route),
	}
}

// ApplyInterfaces resolves every enabled phyint pattern against the
// registry and registers forwarding slots for matches that lack one.
// Safe to call repeatedly: a slot is written once per interface, and
// later passes pick up interfaces that have since gained an address or
// appeared.
func (m *Manager) ApplyInterfaces(cfg *config.Config) {
	for _, phyint := range cfg.Phyint {
		if !phyint.Enable {
			continue
		}

		var c iface.MatchCursor
		for ifc := m.tbl.MatchByName(phyint.Interface, &c); ifc != nil; ifc = m.tbl.MatchByName(phyint.Interface, &c) {
			m.enableInterface(ifc, phyint)
		}

		if c.MatchCount == 0 {
			log.Warnf("Phyint %s matches no interfaces", phyint.Interface)
		}
	}
}

func (m *Manager) enableInterface(ifc *iface.Iface, phyint *config.PhyintConfig) {
	ifc.Threshold = phyint.TTLThreshold
	ifc.Mrdisc = phyint.Mrdisc

	if ifc.VIF < 0 {
		if !ifc.Addr.IsValid() && ifc.Ifindex == 0 {
			// Cannot be registered yet; a later refresh pass retries
			// once the interface has an address or a resolvable index.
			log.Debugf("Interface %s has no address or ifindex yet, deferring VIF registration", ifc.Name)
		} else if vif := m.vifs.NextClear(); vif < 0 {
			log.Warnf("No free VIF for interface %s", ifc.Name)
		} else if err := m.sock.AddVIF(vif, ifc.Ifindex, ifc.Addr, phyint.TTLThreshold); err != nil {
			log.Warnf("Failed registering VIF for %s: %v", ifc.Name, err)
		} else {
			m.vifs.Add(vif)
			ifc.VIF = vif
			log.Infof("Interface %s registered with VIF %d", ifc.Name, vif)
		}
	}

	if m.ipv6 && ifc.MIF < 0 {
		if ifc.Ifindex == 0 {
			log.Debugf("Interface %s has no ifindex yet, deferring MIF registration", ifc.Name)
		} else if mif := m.mifs.NextClear(); mif < 0 {
			log.Warnf("No free MIF for interface %s", ifc.Name)
		} else if err := m.sock.AddMIF(mif, ifc.Ifindex, phyint.TTLThreshold); err != nil {
			log.Warnf("Failed registering MIF for %s: %v", ifc.Name, err)
		} else {
			m.mifs.Add(mif)
			ifc.MIF = mif
			log.Infof("Interface %s registered with MIF %d", ifc.Name, mif)
		}
	}
}

// ApplyRoutes installs the configured static routes that are not
// installed yet. Routes whose interfaces cannot be resolved to
// forwarding slots are skipped with a warning; a later pass retries
// them once the slots exist.
func (m *Manager) ApplyRoutes(cfg *config.Config) {
	for _, rc := range cfg.MRoutes {
		if rc.IsIPv6() && !m.ipv6 {
			log.Warnf("Skipping route (%s,%s): IPv6 multicast routing is disabled", rc.Source, rc.Group)
			continue
		}

		key := rc.Source + "|" + rc.Group
		if _, ok := m.routes[key]; ok {
			continue
		}

		r, err := m.resolveRoute(rc)
		if err != nil {
			log.Warnf("Skipping route (%s,%s): %v", rc.Source, rc.Group, err)
			continue
		}

		if err := m.sock.AddRoute(r); err != nil {
			log.Errorf("Failed installing route (%s,%s): %v", rc.Source, rc.Group, err)
			continue
		}

		m.routes[key] = r
		log.Infof("Installed route (%s,%s) inbound slot %d", rc.Source, rc.Group, r.Inbound)
	}
}

// resolveRoute turns a configured route into concrete forwarding slots
// using the registry's slot-aware pattern matcher.
func (m *Manager) resolveRoute(rc *config.MRouteConfig) (*Route, error) {
	group, err := netip.ParseAddr(rc.Group)
	if err != nil {
		return nil, errs.NewConfigError("invalid group address", err)
	}

	var source netip.Addr
	if !rc.IsAnySource() {
		if source, err = netip.ParseAddr(rc.Source); err != nil {
			return nil, errs.NewConfigError("invalid source address", err)
		}
	}

	r := &Route{
		Source:   source,
		Group:    group,
		Outbound: make(map[int]uint8),
	}

	var c iface.MatchCursor
	var inbound int
	var ifc *iface.Iface
	if rc.IsIPv6() {
		inbound, ifc = m.tbl.MatchMIFByName(rc.From, &c)
	} else {
		inbound, ifc = m.tbl.MatchVIFByName(rc.From, &c)
	}
	if ifc == nil {
		return nil, errs.New(errs.ErrCodeInterface, "no usable inbound interface matches "+rc.From)
	}
	r.Inbound = inbound

	for _, pattern := range rc.To {
		var oc iface.MatchCursor
		for {
			var slot int
			var out *iface.Iface
			if rc.IsIPv6() {
				slot, out = m.tbl.MatchMIFByName(pattern, &oc)
			} else {
				slot, out = m.tbl.MatchVIFByName(pattern, &oc)
			}
			if out == nil {
				break
			}

			// Never mirror traffic back out of the inbound interface.
			if slot == inbound {
				continue
			}

			r.Outbound[slot] = out.Threshold
		}

		if oc.MatchCount == 0 {
			log.Warnf("Outbound pattern %s matches no usable interfaces", pattern)
		}
	}

	if len(r.Outbound) == 0 {
		return nil, errs.New(errs.ErrCodeInterface, "no usable outbound interfaces")
	}

	return r, nil
}

// Routes returns the currently installed routes, ordered by group and
// source.
func (m *Manager) Routes() []*Route {
	out := make([]*Route, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group.Less(out[j].Group)
		}
		return out[i].Source.Less(out[j].Source)
	})
	return out
}

// Close uninstalls all routes and slot registrations and releases the
// kernel socket. Registry entries keep their last slot values; the
// table outlives the kernel state.
func (m *Manager) Close() error {
	for key, r := range m.routes {
		if err := m.sock.DelRoute(r); err != nil {
			log.Warnf("Failed removing route %s: %v", key, err)
		}
		delete(m.routes, key)
	}

	for _, ifc := range m.tbl.Entries() {
		if ifc.VIF >= 0 {
			if err := m.sock.DelVIF(ifc.VIF); err != nil {
				log.Warnf("Failed removing VIF %d (%s): %v", ifc.VIF, ifc.Name, err)
			}
			m.vifs.Remove(ifc.VIF)
		}
		if ifc.MIF >= 0 {
			if err := m.sock.DelMIF(ifc.MIF); err != nil {
				log.Warnf("Failed removing MIF %d (%s): %v", ifc.MIF, ifc.Name, err)
			}
			m.mifs.Remove(ifc.MIF)
		}
	}

	return m.sock.Close()
}
