package baseline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/baseline"
	"github.com/temirov/gitm/internal/snapshot"
)

const legacyBaselineDocument = `{
    "status": {
        "./libs/foo": {
            "time_sec": 1700000000,
            "datetime": "2023-11-15 00:13:20+02:00",
            "sha": "abc123abc123abc123abc123abc123abc123abc1",
            "hash": "abc123a",
            "msg": "Initial commit",
            "count": 3,
            "revision": "abc123a",
            "branch": "main",
            "remote": "origin",
            "url": "https://example.com/foo.git",
            "state": "same detached"
        },
        "tools": {
            "time_sec": "1700000100",
            "datetime": "2023-11-14 22:15:00+00:00",
            "sha": "def456def456def456def456def456def456def4",
            "hash": "def456d",
            "msg": "Tune",
            "count": "12",
            "linked": "../primary/.git"
        }
    }
}
`

func genEntry() gopter.Gen {
	return gopter.CombineGens(
		gen.RegexMatch("[0-9a-f]{40}"),
		gen.AlphaString(),
		gen.IntRange(0, 5000),
		gen.Int64Range(1, 4000000000),
		gen.OneConstOf("", "main", "feature/x"),
		gen.OneConstOf("", "https://example.com/a.git"),
		gen.OneConstOf("", "../primary/.git"),
		gen.OneConstOf(snapshot.DriftStateNone, snapshot.DriftStateSame, snapshot.DriftStateSyncedSame, snapshot.DriftStateUndesired),
	).Map(func(values []interface{}) snapshot.Entry {
		commitID := values[0].(string)
		remoteURL := values[5].(string)
		identity := snapshot.RepoIdentity{
			CommitID:             commitID,
			ShortID:              commitID[:7],
			CommitMessageSummary: values[1].(string),
			CommitCount:          values[2].(int),
			CommitTime:           time.Unix(values[3].(int64), 0).UTC(),
			Branch:               values[4].(string),
			RemoteURL:            remoteURL,
			LinkedFrom:           values[6].(string),
		}
		if len(remoteURL) > 0 {
			identity.RemoteName = "origin"
		}
		return snapshot.Entry{Identity: identity, State: values[7].(snapshot.DriftState)}
	})
}

func genBaseline() gopter.Gen {
	return gen.MapOf(gen.RegexMatch("[a-z]{1,8}(/[a-z]{1,8}){0,2}"), genEntry()).Map(func(entries map[string]snapshot.Entry) *snapshot.Baseline {
		generated := snapshot.NewBaseline()
		for checkoutPath, entry := range entries {
			generated.Set(checkoutPath, entry)
		}
		return generated
	})
}

func TestBaselineEncodingRoundTrip(testInstance *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	for _, format := range []baseline.Format{baseline.FormatJSON, baseline.FormatYAML} {
		format := format
		properties.Property("encode then decode then encode is stable for "+string(format), prop.ForAll(
			func(generated *snapshot.Baseline) bool {
				var firstEncoding bytes.Buffer
				if encodeError := baseline.Encode(&firstEncoding, generated, format); encodeError != nil {
					return false
				}
				decoded, decodeError := baseline.Decode(firstEncoding.Bytes(), format)
				if decodeError != nil || decoded.Len() != generated.Len() {
					return false
				}
				var secondEncoding bytes.Buffer
				if encodeError := baseline.Encode(&secondEncoding, decoded, format); encodeError != nil {
					return false
				}
				return bytes.Equal(firstEncoding.Bytes(), secondEncoding.Bytes())
			},
			genBaseline(),
		))
	}

	properties.TestingRun(testInstance)
}

func TestDecodeAcceptsLegacyDocument(testInstance *testing.T) {
	decoded, decodeError := baseline.Decode([]byte(legacyBaselineDocument), baseline.FormatJSON)
	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, []string{"libs/foo", "tools"}, decoded.Paths())

	fooEntry, found := decoded.Lookup("libs/foo")
	require.True(testInstance, found)
	require.Equal(testInstance, snapshot.DriftStateSameDetached, fooEntry.State)
	require.Equal(testInstance, "main", fooEntry.Identity.Branch)
	require.Equal(testInstance, 3, fooEntry.Identity.CommitCount)
	require.Equal(testInstance, int64(1700000000), fooEntry.Identity.CommitTime.Unix())
	require.Equal(testInstance, "2023-11-15 00:13:20+02:00", fooEntry.Identity.CommitTime.Format(baseline.DatetimeLayout))

	toolsEntry, found := decoded.Lookup("tools")
	require.True(testInstance, found)
	require.Equal(testInstance, 12, toolsEntry.Identity.CommitCount)
	require.Equal(testInstance, "../primary/.git", toolsEntry.Identity.LinkedFrom)
	require.Equal(testInstance, snapshot.DriftStateNone, toolsEntry.State)
}

func TestStoreLoadFailures(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	malformedPath := filepath.Join(workspace, "malformed.json")
	require.NoError(testInstance, os.WriteFile(malformedPath, []byte("{\"status\": [1, 2]}"), 0o644))
	missingStatusPath := filepath.Join(workspace, "empty.yaml")
	require.NoError(testInstance, os.WriteFile(missingStatusPath, []byte("other: {}\n"), 0o644))
	unknownStatePath := filepath.Join(workspace, "state.json")
	require.NoError(testInstance, os.WriteFile(unknownStatePath, []byte(`{"status": {"a": {"sha": "x", "state": "vanished"}}}`), 0o644))

	store := baseline.NewStore(zap.NewNop(), nil)
	for _, location := range []string{malformedPath, missingStatusPath, unknownStatePath, filepath.Join(workspace, "missing.json")} {
		_, loadError := store.Load(location)
		require.ErrorIs(testInstance, loadError, snapshot.ErrBaselineUnreadable, location)
	}
}

func TestStoreLoadFirstAvailable(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	primaryPath := filepath.Join(workspace, "status.json")
	fallbackPath := filepath.Join(workspace, "status.yaml")
	require.NoError(testInstance, os.WriteFile(fallbackPath, []byte("status:\n  tools:\n    sha: abc\n    count: 2\n"), 0o644))

	store := baseline.NewStore(zap.NewNop(), nil)
	loaded, usedLocation, loadError := store.LoadFirstAvailable(primaryPath, fallbackPath)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, fallbackPath, usedLocation)
	require.Equal(testInstance, []string{"tools"}, loaded.Paths())

	require.NoError(testInstance, os.WriteFile(primaryPath, []byte("not json"), 0o644))
	_, _, loadError = store.LoadFirstAvailable(primaryPath, fallbackPath)
	require.ErrorIs(testInstance, loadError, snapshot.ErrBaselineUnreadable)

	_, _, loadError = store.LoadFirstAvailable(filepath.Join(workspace, "a.json"), filepath.Join(workspace, "a.yaml"))
	require.ErrorIs(testInstance, loadError, snapshot.ErrBaselineUnreadable)
}

func TestStoreSaveReplacesFileAtomically(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	destination := filepath.Join(workspace, "status.yaml")
	require.NoError(testInstance, os.WriteFile(destination, []byte("stale"), 0o600))

	saved := snapshot.NewBaseline()
	saved.Set("libs/foo", snapshot.Entry{Identity: snapshot.RepoIdentity{CommitID: "abc", ShortID: "abc", CommitCount: 1}, State: snapshot.DriftStateSame})

	store := baseline.NewStore(zap.NewNop(), nil)
	require.NoError(testInstance, store.Save(context.Background(), saved, destination))

	directoryEntries, readError := os.ReadDir(workspace)
	require.NoError(testInstance, readError)
	require.Len(testInstance, directoryEntries, 1)

	reloaded, loadError := store.Load(destination)
	require.NoError(testInstance, loadError)
	entry, found := reloaded.Lookup("libs/foo")
	require.True(testInstance, found)
	require.Equal(testInstance, snapshot.DriftStateSame, entry.State)
}

func TestStoreSaveToStandardStream(testInstance *testing.T) {
	var standardOutput bytes.Buffer
	saved := snapshot.NewBaseline()
	saved.Set("tools", snapshot.Entry{Identity: snapshot.RepoIdentity{CommitID: "abc", ShortID: "abc", CommitTime: time.Unix(1700000000, 0).UTC()}})

	store := baseline.NewStore(zap.NewNop(), &standardOutput)
	require.NoError(testInstance, store.SaveAs(context.Background(), saved, baseline.StandardStreamLocation, baseline.FormatJSON))
	require.Equal(testInstance, `{
    "status": {
        "tools": {
            "time_sec": 1700000000,
            "datetime": "2023-11-14 22:13:20+00:00",
            "sha": "abc",
            "hash": "abc",
            "msg": "",
            "count": 0
        }
    }
}
`, standardOutput.String())
}
