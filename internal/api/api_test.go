package api

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/StrategicUser/smcroute/internal/iface"
)

type staticSnapshotter struct {
	tuples []iface.IfAddr
}

func (s *staticSnapshotter) Addrs() ([]iface.IfAddr, error) {
	return s.tuples, nil
}

func (s *staticSnapshotter) IndexOf(name string) (int, error) {
	return 2, nil
}

func testState(t *testing.T) *State {
	t.Helper()

	snap := &staticSnapshotter{
		tuples: []iface.IfAddr{
			{Name: "eth0", Addr: netip.MustParseAddr("10.0.0.5"), Flags: net.FlagUp | net.FlagMulticast},
		},
	}
	tbl := iface.NewTable(snap)
	if err := tbl.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	return &State{Table: tbl}
}

func TestGetInterfaces_JSON(t *testing.T) {
	router := NewRouter(testState(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/interfaces", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response InterfacesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Interfaces) != 1 {
		t.Fatalf("Expected 1 interface, got %d", len(response.Interfaces))
	}

	eth0 := response.Interfaces[0]
	if eth0.Name != "eth0" || eth0.Addr != "10.0.0.5" || eth0.Ifindex != 2 {
		t.Errorf("Unexpected interface: %+v", eth0)
	}
	if eth0.VIF != -1 || eth0.MIF != -1 {
		t.Errorf("Expected unassigned slots, got %+v", eth0)
	}
}

func TestGetInterfaces_Text(t *testing.T) {
	router := NewRouter(testState(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/interfaces?format=text", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "eth0 ") {
		t.Errorf("Unexpected dump output: %q", rec.Body.String())
	}
}

func TestGetInterfaces_TextWithFormat(t *testing.T) {
	state := testState(t)
	state.DumpFormat = "{{name}}={{ifindex}}"
	router := NewRouter(state)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/interfaces?format=text", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "eth0=2\n" {
		t.Errorf("Unexpected templated dump: %q", got)
	}
}

func TestGetInterfaces_UnsupportedFormat(t *testing.T) {
	router := NewRouter(testState(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/interfaces?format=xml", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Error.Code != ErrCodeInvalidRequest {
		t.Errorf("Unexpected error code: %s", response.Error.Code)
	}
}

func TestGetRoutes_EmptyWithoutManager(t *testing.T) {
	router := NewRouter(testState(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/routes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response RoutesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Routes) != 0 {
		t.Errorf("Expected no routes, got %d", len(response.Routes))
	}
}

func TestCheckHealth(t *testing.T) {
	router := NewRouter(testState(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !response.Healthy || response.Interfaces != 1 {
		t.Errorf("Unexpected health response: %+v", response)
	}
}
