package baseline

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/gitm/internal/snapshot"
)

// DatetimeLayout renders commit timestamps in the persisted datetime field.
const DatetimeLayout = "2006-01-02 15:04:05-07:00"

// record is the persisted form of one baseline entry.
type record struct {
	TimeSec  int64  `json:"time_sec" yaml:"time_sec" mapstructure:"time_sec"`
	Datetime string `json:"datetime" yaml:"datetime" mapstructure:"datetime"`
	Sha      string `json:"sha" yaml:"sha" mapstructure:"sha"`
	Hash     string `json:"hash" yaml:"hash" mapstructure:"hash"`
	Msg      string `json:"msg" yaml:"msg" mapstructure:"msg"`
	Count    int    `json:"count" yaml:"count" mapstructure:"count"`
	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty" mapstructure:"branch"`
	Remote   string `json:"remote,omitempty" yaml:"remote,omitempty" mapstructure:"remote"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Worktree string `json:"worktree,omitempty" yaml:"worktree,omitempty" mapstructure:"worktree"`
	Linked   string `json:"linked,omitempty" yaml:"linked,omitempty" mapstructure:"linked"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty" mapstructure:"revision"`
	State    string `json:"state,omitempty" yaml:"state,omitempty" mapstructure:"state"`
}

// document is the persisted top-level shape.
type document struct {
	Status map[string]record `json:"status" yaml:"status"`
}

func recordFromEntry(entry snapshot.Entry) record {
	identity := entry.Identity
	persisted := record{
		Sha:      identity.CommitID,
		Hash:     identity.ShortID,
		Msg:      identity.CommitMessageSummary,
		Count:    identity.CommitCount,
		Branch:   identity.Branch,
		Remote:   identity.RemoteName,
		URL:      identity.RemoteURL,
		Worktree: identity.WorktreeRoot,
		Linked:   identity.LinkedFrom,
		Revision: identity.Revision,
		State:    string(entry.State),
	}
	if !identity.CommitTime.IsZero() {
		persisted.TimeSec = identity.CommitTime.Unix()
		persisted.Datetime = identity.CommitTime.Format(DatetimeLayout)
	}
	return persisted
}

func entryFromRecord(checkoutPath string, persisted record) (snapshot.Entry, error) {
	state, stateError := snapshot.ParseDriftState(persisted.State)
	if stateError != nil {
		return snapshot.Entry{}, stateError
	}
	return snapshot.Entry{
		Identity: snapshot.RepoIdentity{
			Path:                 checkoutPath,
			CommitID:             persisted.Sha,
			ShortID:              persisted.Hash,
			CommitCount:          persisted.Count,
			CommitTime:           commitTimeFromRecord(persisted),
			CommitMessageSummary: persisted.Msg,
			Revision:             persisted.Revision,
			Branch:               persisted.Branch,
			RemoteName:           persisted.Remote,
			RemoteURL:            persisted.URL,
			WorktreeRoot:         persisted.Worktree,
			LinkedFrom:           persisted.Linked,
		},
		State: state,
	}, nil
}

// commitTimeFromRecord keeps the recorded offset when the datetime field agrees with
// time_sec, so a loaded baseline saves back unchanged.
func commitTimeFromRecord(persisted record) time.Time {
	if parsedTime, parseError := time.Parse(DatetimeLayout, persisted.Datetime); parseError == nil {
		if persisted.TimeSec == 0 || parsedTime.Unix() == persisted.TimeSec {
			return parsedTime
		}
	}
	if persisted.TimeSec == 0 {
		return time.Time{}
	}
	return time.Unix(persisted.TimeSec, 0).UTC()
}

// decodeRecord converts one loosely typed entry into a record, accepting numbers encoded as
// strings and timestamps that a YAML parser resolved into time values.
func decodeRecord(rawEntry any) (record, error) {
	var persisted record
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeToDatetimeHook,
		WeaklyTypedInput: true,
		Result:           &persisted,
	})
	if decoderError != nil {
		return record{}, decoderError
	}
	if decodeError := decoder.Decode(rawEntry); decodeError != nil {
		return record{}, decodeError
	}
	return persisted, nil
}

func timeToDatetimeHook(sourceType reflect.Type, targetType reflect.Type, value any) (any, error) {
	if targetType.Kind() != reflect.String {
		return value, nil
	}
	if timestamp, isTime := value.(time.Time); isTime {
		return timestamp.Format(DatetimeLayout), nil
	}
	return value, nil
}
