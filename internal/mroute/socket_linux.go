package mroute

import (
	"encoding/binary"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/StrategicUser/smcroute/internal/errs"
)

// VIF flags and MRT setsockopt options from <linux/mroute.h> and
// <linux/mroute6.h>; not exported by x/sys/unix.
const (
	viffUseIfindex = 0x8 // register by ifindex instead of local address

	MRT_INIT    = 200
	MRT_DONE    = 201
	MRT_ADD_VIF = 202
	MRT_DEL_VIF = 203
	MRT_ADD_MFC = 204
	MRT_DEL_MFC = 205

	MRT6_INIT    = 200
	MRT6_DONE    = 201
	MRT6_ADD_MIF = 202
	MRT6_DEL_MIF = 203
	MRT6_ADD_MFC = 204
	MRT6_DEL_MFC = 205

	sizeofVifctl  = 16
	sizeofMfcctl  = 60
	sizeofMif6ctl = 12
	sizeofMf6cctl = 92
)

// routingSocket drives the kernel's multicast-forwarding tables through
// the MRT setsockopt API on raw IGMP/ICMPv6 sockets. Opening it with
// MRT_INIT claims the (single) multicast-routing-daemon role for the
// process; Close relinquishes it.
type routingSocket struct {
	fd4 int
	fd6 int // -1 when IPv6 routing is disabled
}

// NewKernelSocket opens the kernel multicast-routing control sockets.
// Requires CAP_NET_ADMIN.
func NewKernelSocket(enableIPv6 bool) (KernelSocket, error) {
	fd4, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_IGMP)
	if err != nil {
		return nil, errs.NewKernelError("failed opening IGMP routing socket", err)
	}
	if err := unix.SetsockoptInt(fd4, unix.IPPROTO_IP, MRT_INIT, 1); err != nil {
		unix.Close(fd4)
		return nil, errs.NewKernelError("failed initializing IPv4 multicast routing", err)
	}

	s := &routingSocket{fd4: fd4, fd6: -1}

	if enableIPv6 {
		fd6, err := unix.Socket(unix.AF_INET6, unix.SOCK_RAW, unix.IPPROTO_ICMPV6)
		if err != nil {
			s.Close()
			return nil, errs.NewKernelError("failed opening ICMPv6 routing socket", err)
		}
		if err := unix.SetsockoptInt(fd6, unix.IPPROTO_IPV6, MRT6_INIT, 1); err != nil {
			unix.Close(fd6)
			s.Close()
			return nil, errs.NewKernelError("failed initializing IPv6 multicast routing", err)
		}
		s.fd6 = fd6
	}

	return s, nil
}

func (s *routingSocket) setsockopt(fd, level, opt int, value []byte) error {
	return unix.SetsockoptString(fd, level, opt, string(value))
}

// encodeVifctl builds a struct vifctl. Interfaces without an address
// are registered by ifindex (VIFF_USE_IFINDEX), which is how DHCP
// interfaces become routable before they obtain one.
func encodeVifctl(vif, ifindex int, addr netip.Addr, threshold uint8) []byte {
	buf := make([]byte, sizeofVifctl)
	binary.NativeEndian.PutUint16(buf[0:2], uint16(vif))
	buf[3] = threshold
	// vifc_rate_limit stays 0: no rate limiting
	if addr.Is4() {
		a := addr.As4()
		copy(buf[8:12], a[:])
	} else {
		buf[2] |= viffUseIfindex
		binary.NativeEndian.PutUint32(buf[8:12], uint32(ifindex))
	}
	// vifc_rmt_addr stays 0: IPIP tunnel VIFs are not supported
	return buf
}

func (s *routingSocket) AddVIF(vif, ifindex int, addr netip.Addr, threshold uint8) error {
	err := s.setsockopt(s.fd4, unix.IPPROTO_IP, MRT_ADD_VIF, encodeVifctl(vif, ifindex, addr, threshold))
	if err != nil {
		return errs.NewKernelError("MRT_ADD_VIF failed", err)
	}
	return nil
}

func (s *routingSocket) DelVIF(vif int) error {
	buf := make([]byte, sizeofVifctl)
	binary.NativeEndian.PutUint16(buf[0:2], uint16(vif))
	if err := s.setsockopt(s.fd4, unix.IPPROTO_IP, MRT_DEL_VIF, buf); err != nil {
		return errs.NewKernelError("MRT_DEL_VIF failed", err)
	}
	return nil
}

// encodeMif6ctl builds a struct mif6ctl. IPv6 interfaces are always
// identified by physical ifindex.
func encodeMif6ctl(mif, ifindex int, threshold uint8) []byte {
	buf := make([]byte, sizeofMif6ctl)
	binary.NativeEndian.PutUint16(buf[0:2], uint16(mif))
	buf[3] = threshold
	binary.NativeEndian.PutUint16(buf[4:6], uint16(ifindex))
	// vifc_rate_limit stays 0
	return buf
}

func (s *routingSocket) AddMIF(mif, ifindex int, threshold uint8) error {
	if s.fd6 < 0 {
		return errs.New(errs.ErrCodeKernel, "IPv6 multicast routing is disabled")
	}
	err := s.setsockopt(s.fd6, unix.IPPROTO_IPV6, MRT6_ADD_MIF, encodeMif6ctl(mif, ifindex, threshold))
	if err != nil {
		return errs.NewKernelError("MRT6_ADD_MIF failed", err)
	}
	return nil
}

func (s *routingSocket) DelMIF(mif int) error {
	if s.fd6 < 0 {
		return errs.New(errs.ErrCodeKernel, "IPv6 multicast routing is disabled")
	}
	buf := make([]byte, sizeofMif6ctl)
	binary.NativeEndian.PutUint16(buf[0:2], uint16(mif))
	if err := s.setsockopt(s.fd6, unix.IPPROTO_IPV6, MRT6_DEL_MIF, buf); err != nil {
		return errs.NewKernelError("MRT6_DEL_MIF failed", err)
	}
	return nil
}

// encodeMfcctl builds a struct mfcctl. A zero origin gives a (*,G)
// entry. The TTL vector is indexed by VIF; 0 disables forwarding out of
// that slot.
func encodeMfcctl(r *Route) []byte {
	buf := make([]byte, sizeofMfcctl)
	if r.Source.Is4() {
		origin := r.Source.As4()
		copy(buf[0:4], origin[:])
	}
	group := r.Group.As4()
	copy(buf[4:8], group[:])
	binary.NativeEndian.PutUint16(buf[8:10], uint16(r.Inbound))
	for vif, ttl := range r.Outbound {
		if vif >= 0 && vif < MaxVIFs {
			buf[10+vif] = ttl
		}
	}
	// counters and expire stay 0
	return buf
}

// encodeMf6cctl builds a struct mf6cctl: two sockaddr_in6, the parent
// MIF and the outbound interface bitset.
func encodeMf6cctl(r *Route) []byte {
	buf := make([]byte, sizeofMf6cctl)
	putSockaddrIn6(buf[0:28], r.Source)
	putSockaddrIn6(buf[28:56], r.Group)
	binary.NativeEndian.PutUint16(buf[56:58], uint16(r.Inbound))
	for mif := range r.Outbound {
		if mif < 0 || mif >= MaxMIFs {
			continue
		}
		word := 60 + (mif/32)*4
		v := binary.NativeEndian.Uint32(buf[word : word+4])
		v |= 1 << (mif % 32)
		binary.NativeEndian.PutUint32(buf[word:word+4], v)
	}
	return buf
}

func putSockaddrIn6(buf []byte, addr netip.Addr) {
	binary.NativeEndian.PutUint16(buf[0:2], unix.AF_INET6)
	if addr.Is6() {
		a := addr.As16()
		copy(buf[8:24], a[:])
	}
}

func (s *routingSocket) AddRoute(r *Route) error {
	if r.IsIPv6() {
		if s.fd6 < 0 {
			return errs.New(errs.ErrCodeKernel, "IPv6 multicast routing is disabled")
		}
		if err := s.setsockopt(s.fd6, unix.IPPROTO_IPV6, MRT6_ADD_MFC, encodeMf6cctl(r)); err != nil {
			return errs.NewKernelError("MRT6_ADD_MFC failed", err)
		}
		return nil
	}

	if err := s.setsockopt(s.fd4, unix.IPPROTO_IP, MRT_ADD_MFC, encodeMfcctl(r)); err != nil {
		return errs.NewKernelError("MRT_ADD_MFC failed", err)
	}
	return nil
}

func (s *routingSocket) DelRoute(r *Route) error {
	if r.IsIPv6() {
		if s.fd6 < 0 {
			return errs.New(errs.ErrCodeKernel, "IPv6 multicast routing is disabled")
		}
		if err := s.setsockopt(s.fd6, unix.IPPROTO_IPV6, MRT6_DEL_MFC, encodeMf6cctl(r)); err != nil {
			return errs.NewKernelError("MRT6_DEL_MFC failed", err)
		}
		return nil
	}

	if err := s.setsockopt(s.fd4, unix.IPPROTO_IP, MRT_DEL_MFC, encodeMfcctl(r)); err != nil {
		return errs.NewKernelError("MRT_DEL_MFC failed", err)
	}
	return nil
}

func (s *routingSocket) Close() error {
	var first error
	if s.fd6 >= 0 {
		if err := unix.SetsockoptInt(s.fd6, unix.IPPROTO_IPV6, MRT6_DONE, 1); err != nil && first == nil {
			first = errs.NewKernelError("MRT6_DONE failed", err)
		}
		unix.Close(s.fd6)
		s.fd6 = -1
	}
	if s.fd4 >= 0 {
		if err := unix.SetsockoptInt(s.fd4, unix.IPPROTO_IP, MRT_DONE, 1); err != nil && first == nil {
			first = errs.NewKernelError("MRT_DONE failed", err)
		}
		unix.Close(s.fd4)
		s.fd4 = -1
	}
	return first
}
