package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/temirov/gitm/internal/snapshot"
	"github.com/temirov/gitm/internal/utils"
	flagutils "github.com/temirov/gitm/internal/utils/flags"
)

const (
	inspectorBackendGitConstant     = "git"
	inspectorBackendGoGitConstant   = "go-git"
	invalidValueTemplateConstant    = "%w: %s: %w"
	negativeTimeoutTemplateConstant = "%w: %s: negative duration %s"
)

var (
	logLevelChoice         = flagutils.NewChoice(string(utils.LogLevelWarn), utils.SupportedLogLevels)
	logFormatChoice        = flagutils.NewChoice(string(utils.LogFormatConsole), utils.SupportedLogFormats)
	inspectorBackendChoice = flagutils.NewChoice(inspectorBackendGitConstant, []string{inspectorBackendGitConstant, inspectorBackendGoGitConstant})
	repairVerbChoice       = flagutils.NewChoice(string(snapshot.RepairVerbSync), []string{string(snapshot.RepairVerbSync), string(snapshot.RepairVerbImport)})
	unlistedLabelChoice    = flagutils.NewChoice(string(snapshot.UnlistedLabelUndesired), []string{string(snapshot.UnlistedLabelUndesired), string(snapshot.UnlistedLabelRedundant)})
)

// ErrInvalidConfiguration marks configuration values the CLI cannot act on.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration    `mapstructure:"common"`
	Inventory ApplicationInventoryConfiguration `mapstructure:"inventory"`
	Inspector ApplicationInspectorConfiguration `mapstructure:"inspector"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel            string `mapstructure:"log_level"`
	LogFormat           string `mapstructure:"log_format"`
	LogFile             string `mapstructure:"log_file"`
	LogMaxSizeMegabytes int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups       int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays       int    `mapstructure:"log_max_age_days"`
}

// ApplicationInventoryConfiguration stores scan and baseline defaults.
type ApplicationInventoryConfiguration struct {
	Root                 string                             `mapstructure:"root"`
	BaselineFile         string                             `mapstructure:"baseline_file"`
	FallbackBaselineFile string                             `mapstructure:"fallback_baseline_file"`
	CSVFile              string                             `mapstructure:"csv_file"`
	PrunedDirectories    []string                           `mapstructure:"pruned_directories"`
	Vocabulary           ApplicationVocabularyConfiguration `mapstructure:"vocabulary"`
	StandaloneRemote     bool                               `mapstructure:"standalone_remote"`
}

// ApplicationVocabularyConfiguration selects the labels of mode dependent states.
type ApplicationVocabularyConfiguration struct {
	Repair   string `mapstructure:"repair"`
	Unlisted string `mapstructure:"unlisted"`
}

// ApplicationInspectorConfiguration selects how checkouts are read and repaired.
type ApplicationInspectorConfiguration struct {
	Backend string        `mapstructure:"backend"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Validate rejects values outside the supported vocabularies.
func (configuration ApplicationConfiguration) Validate() error {
	checks := []struct {
		key    string
		value  string
		choice flagutils.Choice
	}{
		{key: commonLogLevelConfigKeyConstant, value: configuration.Common.LogLevel, choice: logLevelChoice},
		{key: commonLogFormatConfigKeyConstant, value: configuration.Common.LogFormat, choice: logFormatChoice},
		{key: inspectorBackendConfigKeyConstant, value: configuration.Inspector.Backend, choice: inspectorBackendChoice},
		{key: vocabularyRepairConfigKeyConstant, value: configuration.Inventory.Vocabulary.Repair, choice: repairVerbChoice},
		{key: vocabularyUnlistedConfigKeyConstant, value: configuration.Inventory.Vocabulary.Unlisted, choice: unlistedLabelChoice},
	}
	for _, check := range checks {
		if choiceError := check.choice.Validate(check.value); choiceError != nil {
			return fmt.Errorf(invalidValueTemplateConstant, ErrInvalidConfiguration, check.key, choiceError)
		}
	}
	if configuration.Inspector.Timeout < 0 {
		return fmt.Errorf(negativeTimeoutTemplateConstant, ErrInvalidConfiguration, inspectorTimeoutConfigKeyConstant, configuration.Inspector.Timeout.String())
	}
	return nil
}
