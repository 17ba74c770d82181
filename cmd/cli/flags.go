package cli

import (
	"errors"

	"github.com/spf13/pflag"
)

const (
	// optionalValueSentinelConstant marks an optional-value flag given without "=FILE".
	optionalValueSentinelConstant = "\x00default"

	compareFlagNameConstant           = "compare"
	compareFlagUsageConstant          = "Compare the tree against a baseline (--compare=FILE; default status.json, then status.yaml)."
	syncFlagNameConstant              = "sync"
	syncFlagUsageConstant             = "Compare and repair: clone absent checkouts and check out recorded commits (--sync=FILE)."
	importFlagNameConstant            = "import"
	importFlagUsageConstant           = "Like --sync, labelling repaired checkouts as imported (--import=FILE)."
	csvFlagNameConstant               = "csv"
	csvFlagUsageConstant              = "Write CSV lines (--csv=FILE; default status.csv; - for standard output)."
	jsonFlagNameConstant              = "json"
	jsonFlagUsageConstant             = "Write the result mapping as JSON (--json=FILE; default status.json; - for standard output)."
	yamlFlagNameConstant              = "yaml"
	yamlFlagUsageConstant             = "Write the result mapping as YAML (--yaml=FILE; default status.yaml; - for standard output)."
	exportFlagNameConstant            = "export"
	exportFlagUsageConstant           = "Alias of --yaml."
	shaFlagNameConstant               = "sha"
	shaFlagUsageConstant              = "Print only commit hash and path for every checkout."
	tableFlagNameConstant             = "table"
	tableFlagUsageConstant            = "Print the table even when exporting."
	standaloneRemoteFlagNameConstant  = "standalone_remote"
	standaloneRemoteFlagUsageConstant = "Only report checkouts with a remote and no worktree or link relationship."
)

var errArgument = errors.New("invalid arguments")

// invocationFlags holds the per-run flags of the root command.
type invocationFlags struct {
	flagSet          *pflag.FlagSet
	compare          string
	sync             string
	importFrom       string
	csv              string
	json             string
	yaml             string
	export           string
	sha              bool
	table            bool
	standaloneRemote bool
}

// optionalLocation is the resolved value of an optional-value flag.
type optionalLocation struct {
	requested bool
	// explicit reports whether a location was given with "=FILE".
	explicit bool
	location string
}

func (flags *invocationFlags) register(flagSet *pflag.FlagSet) {
	flags.flagSet = flagSet
	addOptionalValueFlag(flagSet, &flags.compare, compareFlagNameConstant, compareFlagUsageConstant)
	addOptionalValueFlag(flagSet, &flags.sync, syncFlagNameConstant, syncFlagUsageConstant)
	addOptionalValueFlag(flagSet, &flags.importFrom, importFlagNameConstant, importFlagUsageConstant)
	addOptionalValueFlag(flagSet, &flags.csv, csvFlagNameConstant, csvFlagUsageConstant)
	addOptionalValueFlag(flagSet, &flags.json, jsonFlagNameConstant, jsonFlagUsageConstant)
	addOptionalValueFlag(flagSet, &flags.yaml, yamlFlagNameConstant, yamlFlagUsageConstant)
	addOptionalValueFlag(flagSet, &flags.export, exportFlagNameConstant, exportFlagUsageConstant)
	flagSet.BoolVar(&flags.sha, shaFlagNameConstant, false, shaFlagUsageConstant)
	flagSet.BoolVar(&flags.table, tableFlagNameConstant, false, tableFlagUsageConstant)
	flagSet.BoolVar(&flags.standaloneRemote, standaloneRemoteFlagNameConstant, false, standaloneRemoteFlagUsageConstant)
}

func addOptionalValueFlag(flagSet *pflag.FlagSet, target *string, name string, usage string) {
	flagSet.StringVar(target, name, "", usage)
	flagSet.Lookup(name).NoOptDefVal = optionalValueSentinelConstant
}

func (flags *invocationFlags) resolve(flagName string, value string, defaultLocation string) optionalLocation {
	if !flagChanged(flags.flagSet, flagName) {
		return optionalLocation{}
	}
	if value == optionalValueSentinelConstant || len(value) == 0 {
		return optionalLocation{requested: true, location: defaultLocation}
	}
	return optionalLocation{requested: true, explicit: true, location: value}
}

// outputRequested reports whether any output or comparison flag was given.
func (flags *invocationFlags) outputRequested() bool {
	for _, flagName := range []string{compareFlagNameConstant, syncFlagNameConstant, importFlagNameConstant, csvFlagNameConstant, jsonFlagNameConstant, yamlFlagNameConstant, exportFlagNameConstant, shaFlagNameConstant, tableFlagNameConstant} {
		if flagChanged(flags.flagSet, flagName) {
			return true
		}
	}
	return false
}
