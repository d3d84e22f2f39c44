// Package config holds the command-line and environment configuration for
// the data-channels binary.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// DefaultSTUNServer is used unless STUN_SERVER is set in the environment.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

// Config is the resolved runtime configuration.
type Config struct {
	Debug      bool   // enable trace logging
	FullHelp   bool   // print extended help and exit
	STUNServer string // ICE server URL
}

// Parse interprets the given argument list (without the program name).
// Unknown flags return an error; the caller prints usage and exits non-zero.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	fs := pflag.NewFlagSet("data-channels", pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // the returned error carries the usage line
	fs.BoolVar(&cfg.FullHelp, "fullhelp", false, "Prints more detailed help information")
	fs.BoolVarP(&cfg.Debug, "debug", "d", false, "Prints debug log information")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w\n\n%s", err, Usage())
	}

	cfg.STUNServer = DefaultSTUNServer
	if s := os.Getenv("STUN_SERVER"); s != "" {
		cfg.STUNServer = s
	}

	return cfg, nil
}

// Usage returns the short usage line.
func Usage() string {
	return "usage: data-channels [--debug|-d] [--fullhelp]"
}

// FullHelp returns the extended help text shown by --fullhelp.
func FullHelp() string {
	return `data-channels - an example of WebRTC data channels

usage: data-channels [--debug|-d] [--fullhelp]

  --fullhelp    Prints more detailed help information
  -d, --debug   Prints debug log information

The program answers a compiled-in remote offer, prints its local session
description as a single base64 line, and then sends a random 15-character
message on every data channel the remote opens, once every 5 seconds.
Paste the printed base64 line into the remote peer to complete signaling.

Environment:
  STUN_SERVER   Overrides the default STUN URL (` + DefaultSTUNServer + `).
                An optional .env file in the working directory is loaded
                before the environment is read.`
}
