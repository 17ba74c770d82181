package discovery_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitm/internal/repos/discovery"
)

const (
	developerDirectoryName             = "Dev"
	engineeringGroupDirectoryName      = "Group1"
	applicationRepositoryDirectoryName = "Repo1"
	serviceRepositoryDirectoryName     = "Repo2"
	toolsRepositoryDirectoryName       = "Repo3"
	nestedModuleDirectoryName          = "vendor"
	scratchDirectoryName               = "tmp"
	gitMetadataDirectoryName           = ".git"
	repositoryDirectoryPermissions     = 0o755
	worktreePointerContents            = "gitdir: /elsewhere/.git/worktrees/feature\n"
)

type repositoryDefinition struct {
	directorySegments []string
	pointerFile       bool
}

func (definition repositoryDefinition) materialize(testFramework *testing.T, rootDirectory string) {
	testFramework.Helper()
	repositoryPath := filepath.Join(append([]string{rootDirectory}, definition.directorySegments...)...)
	metadataPath := filepath.Join(repositoryPath, gitMetadataDirectoryName)
	if definition.pointerFile {
		require.NoError(testFramework, os.MkdirAll(repositoryPath, repositoryDirectoryPermissions))
		require.NoError(testFramework, os.WriteFile(metadataPath, []byte(worktreePointerContents), 0o644))
		return
	}
	require.NoError(testFramework, os.MkdirAll(metadataPath, repositoryDirectoryPermissions))
}

func collectKeys(testFramework *testing.T, discoverer *discovery.FilesystemRepositoryDiscoverer, root string) []string {
	testFramework.Helper()
	var discoveredKeys []string
	walkError := discoverer.Walk(root, func(candidate discovery.Candidate) error {
		discoveredKeys = append(discoveredKeys, candidate.Key)
		return nil
	})
	require.NoError(testFramework, walkError)
	return discoveredKeys
}

func TestFilesystemRepositoryDiscovererWalksNestedLayouts(testFramework *testing.T) {
	repositoryDefinitions := []repositoryDefinition{
		{directorySegments: []string{developerDirectoryName, engineeringGroupDirectoryName, applicationRepositoryDirectoryName}},
		{directorySegments: []string{developerDirectoryName, engineeringGroupDirectoryName, serviceRepositoryDirectoryName}},
		{directorySegments: []string{developerDirectoryName, toolsRepositoryDirectoryName}},
		{directorySegments: []string{developerDirectoryName, toolsRepositoryDirectoryName, nestedModuleDirectoryName}, pointerFile: true},
		{directorySegments: []string{developerDirectoryName, scratchDirectoryName, applicationRepositoryDirectoryName}},
	}

	temporaryRootDirectory := testFramework.TempDir()
	for _, definition := range repositoryDefinitions {
		definition.materialize(testFramework, temporaryRootDirectory)
	}

	discoverer := discovery.NewFilesystemRepositoryDiscoverer(nil, nil)
	require.Equal(testFramework, []string{
		"Dev/Group1/Repo1",
		"Dev/Group1/Repo2",
		"Dev/Repo3",
		"Dev/Repo3/vendor",
	}, collectKeys(testFramework, discoverer, temporaryRootDirectory))
}

func TestFilesystemRepositoryDiscovererReportsRootCheckout(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	repositoryDefinition{}.materialize(testFramework, temporaryRootDirectory)
	repositoryDefinition{directorySegments: []string{toolsRepositoryDirectoryName}}.materialize(testFramework, temporaryRootDirectory)

	discoverer := discovery.NewFilesystemRepositoryDiscoverer([]string{gitMetadataDirectoryName}, nil)
	require.Equal(testFramework, []string{".", "Repo3"}, collectKeys(testFramework, discoverer, temporaryRootDirectory))
}

func TestFilesystemRepositoryDiscovererHonorsCustomPruneList(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	repositoryDefinition{directorySegments: []string{scratchDirectoryName, toolsRepositoryDirectoryName}}.materialize(testFramework, temporaryRootDirectory)
	repositoryDefinition{directorySegments: []string{"archive", toolsRepositoryDirectoryName}}.materialize(testFramework, temporaryRootDirectory)

	discoverer := discovery.NewFilesystemRepositoryDiscoverer([]string{"archive"}, nil)
	require.Equal(testFramework, []string{"tmp/Repo3"}, collectKeys(testFramework, discoverer, temporaryRootDirectory))
}

func TestFilesystemRepositoryDiscovererStopsOnVisitError(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	repositoryDefinition{directorySegments: []string{applicationRepositoryDirectoryName}}.materialize(testFramework, temporaryRootDirectory)
	repositoryDefinition{directorySegments: []string{serviceRepositoryDirectoryName}}.materialize(testFramework, temporaryRootDirectory)

	stopError := errors.New("stop")
	visitCount := 0
	discoverer := discovery.NewFilesystemRepositoryDiscoverer(nil, nil)
	walkError := discoverer.Walk(temporaryRootDirectory, func(discovery.Candidate) error {
		visitCount++
		return stopError
	})
	require.ErrorIs(testFramework, walkError, stopError)
	require.Equal(testFramework, 1, visitCount)
}

func TestFilesystemRepositoryDiscovererFailsForMissingRoot(testFramework *testing.T) {
	discoverer := discovery.NewFilesystemRepositoryDiscoverer(nil, nil)
	walkError := discoverer.Walk(filepath.Join(testFramework.TempDir(), "missing"), func(discovery.Candidate) error { return nil })
	require.Error(testFramework, walkError)
}

func TestFilesystemRepositoryDiscovererReportsPrunedCheckoutWithoutDescending(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	repositoryDefinition{directorySegments: []string{applicationRepositoryDirectoryName}}.materialize(testFramework, temporaryRootDirectory)
	repositoryDefinition{directorySegments: []string{"work", scratchDirectoryName}}.materialize(testFramework, temporaryRootDirectory)
	repositoryDefinition{directorySegments: []string{"work", scratchDirectoryName, nestedModuleDirectoryName}}.materialize(testFramework, temporaryRootDirectory)
	repositoryDefinition{directorySegments: []string{"pointer", scratchDirectoryName}, pointerFile: true}.materialize(testFramework, temporaryRootDirectory)

	discoverer := discovery.NewFilesystemRepositoryDiscoverer(nil, nil)
	require.Equal(testFramework, []string{
		"Repo1",
		"pointer/tmp",
		"work/tmp",
	}, collectKeys(testFramework, discoverer, temporaryRootDirectory))
}
