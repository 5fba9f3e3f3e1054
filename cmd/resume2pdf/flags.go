package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// convertFlags holds all flags for a conversion.
type convertFlags struct {
	common   commonFlags
	template string
	format   string
	timeout  string
	marginX  float64
	marginY  float64

	// 0 is a valid margin, so explicit values are tracked separately.
	marginXSet bool
	marginYSet bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	host    string
	port    int
	verbose bool
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	config string
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
}

// newFlagSet creates a FlagSet that reports errors to the caller instead of
// printing them; usage is printed by the command on ErrHelp.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseConvertFlags parses conversion flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := newFlagSet("convert")
	f := &convertFlags{}

	fs.StringVarP(&f.template, "template", "T", "", "template id (overrides metadata.template)")
	fs.StringVarP(&f.format, "format", "f", "", "page format: a4, letter, free-form")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "overall conversion timeout (e.g., 90s, 3m)")
	fs.Float64Var(&f.marginX, "margin-x", 0, "horizontal margin in points (print-margin templates)")
	fs.Float64Var(&f.marginY, "margin-y", 0, "vertical margin in points (print-margin templates)")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.marginXSet = fs.Changed("margin-x")
	f.marginYSet = fs.Changed("margin-y")
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string) (*serveFlags, error) {
	fs := newFlagSet("serve")
	f := &serveFlags{}

	fs.StringVar(&f.host, "host", "127.0.0.1", "address to listen on")
	fs.IntVarP(&f.port, "port", "p", 0, "port to listen on (0 = any free port)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every request")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string) (*doctorFlags, error) {
	fs := newFlagSet("doctor")
	f := &doctorFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVar(&f.json, "json", false, "output JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
