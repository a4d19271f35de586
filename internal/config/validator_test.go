package config

import (
	"errors"
	"strings"
	"testing"
)

func validBase() *Config {
	cfg := &Config{
		General: &GeneralConfig{},
		Phyint: []*PhyintConfig{
			{Interface: "eth0", Enable: true, TTLThreshold: 1},
		},
	}
	return cfg
}

func expectValidationError(t *testing.T, cfg *Config, fieldPath string) {
	t.Helper()

	err := cfg.ValidateConfig()
	if err == nil {
		t.Fatalf("Expected validation error on %s", fieldPath)
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Expected ValidationErrors, got %T: %v", err, err)
	}
	for _, ve := range verrs {
		if strings.Contains(ve.FieldPath, fieldPath) {
			return
		}
	}
	t.Errorf("No validation error mentions %s: %v", fieldPath, err)
}

func TestValidateConfig_Valid(t *testing.T) {
	if err := validBase().ValidateConfig(); err != nil {
		t.Errorf("Expected valid config, got: %v", err)
	}
}

func TestValidateConfig_BadListenAddr(t *testing.T) {
	cfg := validBase()
	cfg.General.APIListen = "not-a-hostport"
	expectValidationError(t, cfg, "api_listen")
}

func TestValidateConfig_PhyintPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		valid   bool
	}{
		{"exact name", "eth0", true},
		{"wildcard", "vlan+", true},
		{"empty", "", false},
		{"bare wildcard", "+", false},
		{"interior plus", "e+th0", false},
		{"alias separator", "eth0:0", false},
		{"too long", "averylonginterfacename0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			cfg.Phyint[0].Interface = tt.pattern

			err := cfg.ValidateConfig()
			if tt.valid && err != nil {
				t.Errorf("Expected %q to be valid: %v", tt.pattern, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected %q to be rejected", tt.pattern)
			}
		})
	}
}

func TestValidateConfig_DuplicatePhyint(t *testing.T) {
	cfg := validBase()
	cfg.Phyint = append(cfg.Phyint, &PhyintConfig{Interface: "eth0", Enable: true, TTLThreshold: 1})
	expectValidationError(t, cfg, "interface")
}

func TestValidateConfig_MRouteGroup(t *testing.T) {
	cfg := validBase()
	cfg.MRoutes = []*MRouteConfig{
		{Source: "*", Group: "10.1.2.3", From: "eth0", To: []string{"eth0"}},
	}
	expectValidationError(t, cfg, "group")
}

func TestValidateConfig_MRouteSourceFamilyMismatch(t *testing.T) {
	cfg := validBase()
	cfg.MRoutes = []*MRouteConfig{
		{Source: "fe80::1", Group: "225.1.2.3", From: "eth0", To: []string{"eth0"}},
	}
	expectValidationError(t, cfg, "source")
}

func TestValidateConfig_MRouteWithoutOutbound(t *testing.T) {
	cfg := validBase()
	cfg.MRoutes = []*MRouteConfig{
		{Source: "*", Group: "225.1.2.3", From: "eth0"},
	}
	expectValidationError(t, cfg, "to")
}

func TestValidateConfig_MRouteInboundNotAPhyint(t *testing.T) {
	cfg := validBase()
	cfg.MRoutes = []*MRouteConfig{
		{Source: "*", Group: "225.1.2.3", From: "wlan0", To: []string{"eth0"}},
	}
	expectValidationError(t, cfg, "from")
}

func TestValidateConfig_MRouteInboundCoveredByWildcard(t *testing.T) {
	cfg := validBase()
	cfg.Phyint[0].Interface = "eth+"
	cfg.MRoutes = []*MRouteConfig{
		{Source: "*", Group: "225.1.2.3", From: "eth1", To: []string{"eth+"}},
	}
	if err := cfg.ValidateConfig(); err != nil {
		t.Errorf("Expected wildcard phyint to cover eth1: %v", err)
	}
}
