package api

import (
	"bytes"
	"net/http"

	"github.com/StrategicUser/smcroute/internal/iface"
	"github.com/StrategicUser/smcroute/internal/mroute"
)

// InterfaceInfo represents one registry entry in API responses.
type InterfaceInfo struct {
	Name      string `json:"name"`
	Ifindex   int    `json:"ifindex"`
	Addr      string `json:"addr,omitempty"`
	Flags     string `json:"flags"`
	VIF       int    `json:"vif"`
	MIF       int    `json:"mif"`
	Mrdisc    bool   `json:"mrdisc"`
	Threshold uint8  `json:"threshold"`
}

// InterfacesResponse represents the response for the interfaces endpoint.
type InterfacesResponse struct {
	Interfaces []InterfaceInfo `json:"interfaces"`
}

// RoutesResponse represents the response for the routes endpoint.
type RoutesResponse struct {
	Routes []*mroute.Route `json:"routes"`
}

// HealthResponse represents the response for the health endpoint.
type HealthResponse struct {
	Healthy    bool `json:"healthy"`
	Interfaces int  `json:"interfaces"`
}

// GetInterfaces returns all registry entries. With ?format=text the
// response is the plain-text interface dump instead of JSON.
// GET /api/v1/interfaces
func (h *Handler) GetInterfaces(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "text" {
		WriteInvalidRequest(w, "Unsupported format: "+format)
		return
	}

	h.state.Mu.Lock()
	defer h.state.Mu.Unlock()

	if format == "text" {
		// Render to a buffer first so a dump failure does not produce
		// a half-written 200 response.
		var buf bytes.Buffer
		var err error
		if h.state.DumpFormat != "" {
			err = h.state.Table.DumpFormat(&buf, h.state.DumpFormat)
		} else {
			err = h.state.Table.Dump(&buf)
		}
		if err != nil {
			WriteInternalError(w, "Failed to dump interfaces: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
		return
	}

	response := InterfacesResponse{Interfaces: []InterfaceInfo{}}
	for _, ifc := range h.state.Table.Entries() {
		response.Interfaces = append(response.Interfaces, interfaceInfo(ifc))
	}

	writeJSONData(w, response)
}

// GetRoutes returns the currently installed multicast routes.
// GET /api/v1/routes
func (h *Handler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	h.state.Mu.Lock()
	defer h.state.Mu.Unlock()

	response := RoutesResponse{Routes: []*mroute.Route{}}
	if h.state.Manager != nil {
		response.Routes = h.state.Manager.Routes()
	}

	writeJSONData(w, response)
}

// CheckHealth reports daemon liveness.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	h.state.Mu.Lock()
	defer h.state.Mu.Unlock()

	writeJSONData(w, HealthResponse{Healthy: true, Interfaces: h.state.Table.Len()})
}

func interfaceInfo(ifc *iface.Iface) InterfaceInfo {
	addr := ""
	if ifc.Addr.IsValid() {
		addr = ifc.Addr.String()
	}

	return InterfaceInfo{
		Name:      ifc.Name,
		Ifindex:   ifc.Ifindex,
		Addr:      addr,
		Flags:     ifc.Flags.String(),
		VIF:       ifc.VIF,
		MIF:       ifc.MIF,
		Mrdisc:    ifc.Mrdisc,
		Threshold: ifc.Threshold,
	}
}
