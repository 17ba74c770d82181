package discovery_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitm/internal/repos/discovery"
	"github.com/temirov/gitm/internal/snapshot"
)

type stubInspector struct {
	identities map[string]snapshot.RepoIdentity
	failures   map[string]error
	inspected  []string
}

func (inspector *stubInspector) Inspect(_ context.Context, repositoryPath string) (snapshot.RepoIdentity, error) {
	repositoryName := filepath.Base(repositoryPath)
	inspector.inspected = append(inspector.inspected, repositoryName)
	if failure, found := inspector.failures[repositoryName]; found {
		return snapshot.RepoIdentity{}, failure
	}
	identity := inspector.identities[repositoryName]
	identity.Path = repositoryPath
	return identity, nil
}

func TestScannerInspectsAndFilters(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	for _, repositoryName := range []string{"alpha", "beta", "gamma", "delta"} {
		repositoryDefinition{directorySegments: []string{repositoryName}}.materialize(testFramework, temporaryRootDirectory)
	}

	inspectionFailure := errors.New("corrupt object")
	inspector := &stubInspector{
		identities: map[string]snapshot.RepoIdentity{
			"alpha": {RemoteName: "origin", RemoteURL: "https://example.com/alpha.git"},
			"beta":  {RemoteName: "origin", RemoteURL: "https://example.com/beta.git", WorktreeRoot: "/srv/beta"},
			"delta": {},
		},
		failures: map[string]error{"gamma": inspectionFailure},
	}

	testCases := []struct {
		name            string
		options         discovery.ScanOptions
		expectedKeys    []string
		expectedFailure string
	}{
		{name: "all_checkouts", options: discovery.ScanOptions{}, expectedKeys: []string{"alpha", "beta", "delta"}, expectedFailure: "gamma"},
		{name: "standalone_remote_only", options: discovery.ScanOptions{StandaloneRemoteOnly: true}, expectedKeys: []string{"alpha"}, expectedFailure: "gamma"},
	}

	for _, testCase := range testCases {
		testFramework.Run(testCase.name, func(testFramework *testing.T) {
			scanner, creationError := discovery.NewScanner(discovery.NewFilesystemRepositoryDiscoverer(nil, nil), inspector)
			require.NoError(testFramework, creationError)

			var identityKeys []string
			var failedKeys []string
			scanError := scanner.Scan(context.Background(), temporaryRootDirectory, testCase.options, func(result discovery.ScanResult) error {
				if result.Err != nil {
					require.ErrorIs(testFramework, result.Err, inspectionFailure)
					failedKeys = append(failedKeys, result.Key)
					return nil
				}
				require.Equal(testFramework, result.Key, result.Identity.Path)
				identityKeys = append(identityKeys, result.Key)
				return nil
			})
			require.NoError(testFramework, scanError)
			require.Equal(testFramework, testCase.expectedKeys, identityKeys)
			require.Equal(testFramework, []string{testCase.expectedFailure}, failedKeys)
		})
	}
}

func TestScannerStopsWhenContextCancelled(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	repositoryDefinition{directorySegments: []string{"alpha"}}.materialize(testFramework, temporaryRootDirectory)

	scanner, creationError := discovery.NewScanner(nil, &stubInspector{})
	require.NoError(testFramework, creationError)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	scanError := scanner.Scan(cancelledContext, temporaryRootDirectory, discovery.ScanOptions{}, func(discovery.ScanResult) error { return nil })
	require.ErrorIs(testFramework, scanError, context.Canceled)
}

func TestNewScannerRequiresInspector(testFramework *testing.T) {
	_, creationError := discovery.NewScanner(nil, nil)
	require.ErrorIs(testFramework, creationError, discovery.ErrInspectorNotConfigured)
}
