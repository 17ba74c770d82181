package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/baseline"
	"github.com/temirov/gitm/internal/inventory"
	"github.com/temirov/gitm/internal/report"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	conflictingRepairFlagsTemplateConstant = "%w: --%s and --%s cannot be combined"
	conflictingBaselinesTemplateConstant   = "%w: conflicting baseline files %q and %q"
	passthroughWithOutputTemplateConstant  = "%w: git arguments after -- cannot be combined with output or comparison flags"
	rootNotDirectoryTemplateConstant       = "%w: root %q is not a directory"
	csvOpenErrorTemplateConstant           = "unable to open csv output %s: %w"
	runStartingMessageConstant             = "inventory run starting"
	rootFieldConstant                      = "root"
	compareFieldConstant                   = "compare"
	repairFieldConstant                    = "repair"
)

// runPlan is the resolved intent of one invocation.
type runPlan struct {
	root          string
	repairEnabled bool
	options       inventory.Options
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	executionContext := command.Context()
	logger := application.commandContextAccessor.Logger(executionContext)
	positional, passthrough := splitArguments(command, arguments)

	plan, planError := application.resolvePlan(positional)
	if planError != nil {
		return planError
	}
	if len(passthrough) > 0 && application.invocation.outputRequested() {
		return fmt.Errorf(passthroughWithOutputTemplateConstant, errArgument)
	}
	configurationFilePath, _ := application.commandContextAccessor.ConfigurationFilePath(executionContext)
	logger.Debug(
		runStartingMessageConstant,
		zap.String(configurationFileFieldConstant, configurationFilePath),
		zap.String(rootFieldConstant, plan.root),
		zap.Bool(compareFieldConstant, plan.options.Compare),
		zap.Bool(repairFieldConstant, plan.repairEnabled),
	)

	components, componentsError := application.buildComponents(logger, plan.root, plan.repairEnabled, plan.options.Vocabulary)
	if componentsError != nil {
		return componentsError
	}

	if len(passthrough) > 0 {
		runReport, runError := components.service.RunPassthrough(executionContext, plan.options, passthrough)
		if runError != nil {
			return runError
		}
		application.recordOutcome(runReport, components)
		return nil
	}

	emitter, closeOutputs, emitterError := application.buildEmitter(components.store)
	if emitterError != nil {
		return emitterError
	}
	runReport, runError := components.service.Run(executionContext, plan.options, emitter)
	closeError := closeOutputs()
	if runError != nil {
		return runError
	}
	if closeError != nil {
		return closeError
	}
	application.recordOutcome(runReport, components)
	return nil
}

func (application *Application) resolvePlan(positional []string) (runPlan, error) {
	inventoryConfiguration := application.configuration.Inventory
	root := inventoryConfiguration.Root
	if len(positional) > 0 {
		root = positional[0]
	}
	root = application.homeExpander.Expand(root)
	if rootInfo, statError := os.Stat(root); statError != nil || !rootInfo.IsDir() {
		return runPlan{}, fmt.Errorf(rootNotDirectoryTemplateConstant, errArgument, root)
	}

	flags := &application.invocation
	compare := flags.resolve(compareFlagNameConstant, flags.compare, "")
	sync := flags.resolve(syncFlagNameConstant, flags.sync, "")
	importing := flags.resolve(importFlagNameConstant, flags.importFrom, "")
	if sync.requested && importing.requested {
		return runPlan{}, fmt.Errorf(conflictingRepairFlagsTemplateConstant, errArgument, syncFlagNameConstant, importFlagNameConstant)
	}

	explicitLocation := ""
	for _, candidate := range []optionalLocation{compare, sync, importing} {
		if !candidate.explicit {
			continue
		}
		if len(explicitLocation) > 0 && explicitLocation != candidate.location {
			return runPlan{}, fmt.Errorf(conflictingBaselinesTemplateConstant, errArgument, explicitLocation, candidate.location)
		}
		explicitLocation = candidate.location
	}

	vocabulary := snapshot.Vocabulary{
		Repair:   snapshot.RepairVerb(inventoryConfiguration.Vocabulary.Repair),
		Unlisted: snapshot.UnlistedLabel(inventoryConfiguration.Vocabulary.Unlisted),
	}
	switch {
	case importing.requested:
		vocabulary.Repair = snapshot.RepairVerbImport
	case sync.requested:
		vocabulary.Repair = snapshot.RepairVerbSync
	}

	baselineLocations := application.homeExpander.ExpandAll([]string{inventoryConfiguration.BaselineFile, inventoryConfiguration.FallbackBaselineFile})
	if len(explicitLocation) > 0 {
		baselineLocations = []string{application.homeExpander.Expand(explicitLocation)}
		vocabulary.Unlisted = snapshot.UnlistedLabelRedundant
	}

	repairEnabled := sync.requested || importing.requested
	return runPlan{
		root:          root,
		repairEnabled: repairEnabled,
		options: inventory.Options{
			Root:                 root,
			Compare:              compare.requested || repairEnabled,
			BaselineLocations:    baselineLocations,
			StandaloneRemoteOnly: inventoryConfiguration.StandaloneRemote,
			Vocabulary:           vocabulary,
		},
	}, nil
}

// buildEmitter assembles the requested outputs. The returned function closes opened files.
func (application *Application) buildEmitter(store *baseline.Store) (report.Emitter, func() error, error) {
	flags := &application.invocation
	inventoryConfiguration := application.configuration.Inventory
	csvOutput := flags.resolve(csvFlagNameConstant, flags.csv, inventoryConfiguration.CSVFile)
	jsonOutput := flags.resolve(jsonFlagNameConstant, flags.json, inventoryConfiguration.BaselineFile)
	yamlOutput := flags.resolve(yamlFlagNameConstant, flags.yaml, inventoryConfiguration.FallbackBaselineFile)
	exportOutput := flags.resolve(exportFlagNameConstant, flags.export, inventoryConfiguration.FallbackBaselineFile)
	exporting := jsonOutput.requested || yamlOutput.requested || exportOutput.requested

	var closers []io.Closer
	closeOutputs := func() error {
		var closeErrors []error
		for _, closer := range closers {
			closeErrors = append(closeErrors, closer.Close())
		}
		return errors.Join(closeErrors...)
	}

	var emitters []report.Emitter
	if flags.sha {
		emitters = append(emitters, report.NewSHAEmitter(application.standardOutput))
	}
	if csvOutput.requested {
		csvWriter := application.standardOutput
		if csvOutput.location != baseline.StandardStreamLocation {
			csvLocation := application.homeExpander.Expand(csvOutput.location)
			csvFile, createError := os.Create(csvLocation)
			if createError != nil {
				return nil, closeOutputs, fmt.Errorf(csvOpenErrorTemplateConstant, csvLocation, createError)
			}
			closers = append(closers, csvFile)
			csvWriter = csvFile
		}
		emitters = append(emitters, report.NewCSVEmitter(csvWriter))
	}
	if flags.table || (!flags.sha && !csvOutput.requested && !exporting) {
		emitters = append(emitters, report.NewTableEmitter(application.standardOutput, nil))
	}

	mappingOutputs := []struct {
		output optionalLocation
		format baseline.Format
	}{
		{output: jsonOutput, format: baseline.FormatJSON},
		{output: yamlOutput, format: baseline.FormatYAML},
		{output: exportOutput, format: baseline.FormatYAML},
	}
	for _, mappingOutput := range mappingOutputs {
		if !mappingOutput.output.requested {
			continue
		}
		mappingEmitter, mappingError := report.NewMappingEmitter(store, application.homeExpander.Expand(mappingOutput.output.location), mappingOutput.format)
		if mappingError != nil {
			return nil, closeOutputs, mappingError
		}
		emitters = append(emitters, mappingEmitter)
	}
	return report.NewMultiEmitter(emitters...), closeOutputs, nil
}

func (application *Application) recordOutcome(runReport inventory.RunReport, components *runtimeComponents) {
	if runReport.HasFailures() || components.walkFailures.count > 0 {
		application.exitCode = ExitCodeEntryFailures
	}
}
