package commands

import (
	"flag"
	"os"

	"github.com/StrategicUser/smcroute/internal/config"
	"github.com/StrategicUser/smcroute/internal/iface"
)

func CreateInterfacesCommand() *InterfacesCommand {
	gc := &InterfacesCommand{
		fs: flag.NewFlagSet("interfaces", flag.ExitOnError),
	}

	gc.fs.StringVar(&gc.Format, "format", "", "Dump template, e.g. '{{name}} ({{addr}})'. Overrides dump_format from the configuration")

	return gc
}

type InterfacesCommand struct {
	fs     *flag.FlagSet
	ctx    *AppContext
	cfg    *config.Config
	Format string
}

func (g *InterfacesCommand) Name() string {
	return g.fs.Name()
}

func (g *InterfacesCommand) Init(args []string, ctx *AppContext) error {
	g.ctx = ctx

	if err := g.fs.Parse(args); err != nil {
		return err
	}

	// The configuration is optional here: dumping the interface table
	// only needs it for the dump_format setting.
	if _, err := os.Stat(ctx.ConfigPath); err == nil {
		if cfg, err := loadConfigOrFail(ctx.ConfigPath); err != nil {
			return err
		} else {
			g.cfg = cfg
		}
	}

	return nil
}

func (g *InterfacesCommand) Run() error {
	tbl := iface.NewTable(iface.NetlinkSnapshotter{})
	if err := tbl.Init(); err != nil {
		return err
	}

	format := g.Format
	if format == "" && g.cfg != nil {
		format = g.cfg.General.DumpFormat
	}

	if format != "" {
		return tbl.DumpFormat(os.Stdout, format)
	}
	return tbl.Dump(os.Stdout)
}
