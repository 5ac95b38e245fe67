package handlers

import (
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v2"
)

// version is set at build time with -ldflags "-X cloudshare/handlers.version=...".
var version string

// Version returns the build version, falling back to the module version.
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build version & exit",
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, Version())
			return nil
		},
	}
}
