package commands

import (
	"flag"
	"fmt"

	"github.com/StrategicUser/smcroute/internal/config"
	"github.com/StrategicUser/smcroute/internal/iface"
	"github.com/StrategicUser/smcroute/internal/log"
)

func CreateCheckCommand() *CheckCommand {
	gc := &CheckCommand{
		fs: flag.NewFlagSet("check", flag.ExitOnError),
	}
	return gc
}

// CheckCommand validates the configuration and reports which interface
// patterns match nothing on the running system. The coverage check is
// by name only: no forwarding slots are registered here, so a pattern
// that matches interfaces which later fail slot registration still
// counts as covered.
type CheckCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config
}

func (g *CheckCommand) Name() string {
	return g.fs.Name()
}

func (g *CheckCommand) Init(args []string, ctx *AppContext) error {
	g.ctx = ctx

	if err := g.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		g.cfg = cfg
	}

	return nil
}

func (g *CheckCommand) Run() error {
	log.Infof("Configuration %s is structurally valid", g.ctx.ConfigPath)

	tbl := iface.NewTable(iface.NetlinkSnapshotter{})
	if err := tbl.Init(); err != nil {
		return err
	}

	warnings := 0
	warnings += checkPatterns(tbl, collectPatterns(g.cfg))

	if warnings > 0 {
		return fmt.Errorf("%d interface pattern(s) match nothing on this system", warnings)
	}

	log.Infof("All interface patterns match at least one interface")
	return nil
}

func collectPatterns(cfg *config.Config) []string {
	var patterns []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}

	for _, phyint := range cfg.Phyint {
		add(phyint.Interface)
	}
	for _, route := range cfg.MRoutes {
		add(route.From)
		for _, to := range route.To {
			add(to)
		}
	}

	return patterns
}

func checkPatterns(tbl *iface.Table, patterns []string) int {
	warnings := 0
	for _, pattern := range patterns {
		var cursor iface.MatchCursor
		for tbl.MatchByName(pattern, &cursor) != nil {
		}

		if cursor.MatchCount == 0 {
			log.Warnf("Interface pattern %q matches no interface", pattern)
			warnings++
		} else {
			log.Infof("Interface pattern %q matches %d interface(s)", pattern, cursor.MatchCount)
		}
	}
	return warnings
}
