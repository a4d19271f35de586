package iface

import (
	"fmt"
	"io"
	"strconv"

	"github.com/StrategicUser/smcroute/internal/errs"
	"github.com/valyala/fasttemplate"
)

// Dump writes one fixed-width line per registered interface, in table
// order: name, ifindex, IPv4 slot, IPv6 slot. A write failure aborts
// the remaining output and is returned as an IPC-coded error; the
// table itself is unaffected.
func (t *Table) Dump(w io.Writer) error {
	for _, ifc := range t.entries {
		line := fmt.Sprintf("%-16s  %6d  %3d  %3d\n", ifc.Name, ifc.Ifindex, ifc.VIF, ifc.MIF)
		if _, err := io.WriteString(w, line); err != nil {
			return errs.NewIPCError("failed sending reply to client", err)
		}
	}

	return nil
}

// DumpFormat writes one line per registered interface using a template
// with {{name}}, {{ifindex}}, {{addr}}, {{vif}} and {{mif}} variables.
func (t *Table) DumpFormat(w io.Writer, format string) error {
	tmpl, err := fasttemplate.NewTemplate(format+"\n", "{{", "}}")
	if err != nil {
		return errs.NewConfigError("invalid dump format", err)
	}

	for _, ifc := range t.entries {
		addr := ""
		if ifc.Addr.IsValid() {
			addr = ifc.Addr.String()
		}

		vars := map[string]interface{}{
			"name":    ifc.Name,
			"ifindex": strconv.Itoa(ifc.Ifindex),
			"addr":    addr,
			"vif":     strconv.Itoa(ifc.VIF),
			"mif":     strconv.Itoa(ifc.MIF),
		}
		if _, err := tmpl.Execute(w, vars); err != nil {
			return errs.NewIPCError("failed sending reply to client", err)
		}
	}

	return nil
}
