package gitrepo

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	gitConfigFileNameConstant   = "config"
	commonDirectoryFileConstant = "commondir"
	gitDirectoryPointerPrefix   = "gitdir:"
	pathFieldConstant           = "path"
)

// ResolveLinkage reports where the checkout's shared metadata lives when it is linked
// into another checkout. The result is relative to the checkout and slash separated,
// or empty for a self-contained checkout.
func ResolveLinkage(fileSystem shared.FileSystem, repositoryPath string) (string, error) {
	metadataPath := filepath.Join(repositoryPath, shared.GitMetadataDirectoryNameConstant)
	metadataInfo, lstatError := fileSystem.Lstat(metadataPath)
	if lstatError != nil {
		if errors.Is(lstatError, fs.ErrNotExist) {
			return "", goerr.Wrap(snapshot.ErrNotARepository, "checkout metadata missing", goerr.V(pathFieldConstant, repositoryPath))
		}
		return "", goerr.Wrap(lstatError, "unable to read checkout metadata", goerr.V(pathFieldConstant, repositoryPath))
	}

	switch {
	case metadataInfo.Mode()&fs.ModeSymlink != 0:
		resolvedMetadata, resolveError := fileSystem.EvalSymlinks(metadataPath)
		if resolveError != nil {
			return "", goerr.Wrap(resolveError, "unable to resolve linked metadata", goerr.V(pathFieldConstant, repositoryPath))
		}
		return relativeLinkage(fileSystem, repositoryPath, resolvedMetadata)
	case metadataInfo.Mode().IsRegular():
		return resolveDirectoryPointer(fileSystem, repositoryPath, metadataPath)
	default:
		return resolveLinkedConfiguration(fileSystem, repositoryPath, metadataPath)
	}
}

// resolveDirectoryPointer follows a "gitdir: <dir>" file as written for secondary
// worktrees, then its commondir file, to the shared store.
func resolveDirectoryPointer(fileSystem shared.FileSystem, repositoryPath string, metadataPath string) (string, error) {
	pointerContents, readError := fileSystem.ReadFile(metadataPath)
	if readError != nil {
		return "", goerr.Wrap(readError, "unable to read metadata pointer", goerr.V(pathFieldConstant, repositoryPath))
	}
	pointerLine := strings.TrimSpace(string(pointerContents))
	if !strings.HasPrefix(pointerLine, gitDirectoryPointerPrefix) {
		return "", goerr.Wrap(snapshot.ErrNotARepository, "metadata pointer malformed", goerr.V(pathFieldConstant, repositoryPath))
	}
	privateDirectory := strings.TrimSpace(strings.TrimPrefix(pointerLine, gitDirectoryPointerPrefix))
	if !filepath.IsAbs(privateDirectory) {
		privateDirectory = filepath.Join(repositoryPath, privateDirectory)
	}

	sharedDirectory := privateDirectory
	commonDirectoryContents, commonReadError := fileSystem.ReadFile(filepath.Join(privateDirectory, commonDirectoryFileConstant))
	if commonReadError == nil {
		sharedDirectory = strings.TrimSpace(string(commonDirectoryContents))
		if !filepath.IsAbs(sharedDirectory) {
			sharedDirectory = filepath.Join(privateDirectory, sharedDirectory)
		}
	}
	return relativeLinkage(fileSystem, repositoryPath, sharedDirectory)
}

// resolveLinkedConfiguration handles a metadata directory whose config file is a
// symbolic link into another checkout's metadata directory.
func resolveLinkedConfiguration(fileSystem shared.FileSystem, repositoryPath string, metadataPath string) (string, error) {
	configPath := filepath.Join(metadataPath, gitConfigFileNameConstant)
	configInfo, lstatError := fileSystem.Lstat(configPath)
	if lstatError != nil || configInfo.Mode()&fs.ModeSymlink == 0 {
		return "", nil
	}
	resolvedConfig, resolveError := fileSystem.EvalSymlinks(configPath)
	if resolveError != nil {
		return "", goerr.Wrap(resolveError, "unable to resolve linked configuration", goerr.V(pathFieldConstant, repositoryPath))
	}
	return relativeLinkage(fileSystem, repositoryPath, filepath.Dir(resolvedConfig))
}

func relativeLinkage(fileSystem shared.FileSystem, repositoryPath string, targetPath string) (string, error) {
	absoluteRepositoryPath, absoluteError := canonicalPath(fileSystem, repositoryPath)
	if absoluteError != nil {
		return "", goerr.Wrap(absoluteError, "unable to resolve checkout path", goerr.V(pathFieldConstant, repositoryPath))
	}
	absoluteTargetPath, absoluteError := canonicalPath(fileSystem, targetPath)
	if absoluteError != nil {
		return "", goerr.Wrap(absoluteError, "unable to resolve linked metadata path", goerr.V(pathFieldConstant, repositoryPath))
	}
	relativeTarget, relativeError := filepath.Rel(absoluteRepositoryPath, absoluteTargetPath)
	if relativeError != nil {
		return filepath.ToSlash(absoluteTargetPath), nil
	}
	return filepath.ToSlash(relativeTarget), nil
}

func canonicalPath(fileSystem shared.FileSystem, location string) (string, error) {
	absolutePath, absoluteError := fileSystem.Abs(location)
	if absoluteError != nil {
		return "", absoluteError
	}
	if resolvedPath, resolveError := fileSystem.EvalSymlinks(absolutePath); resolveError == nil {
		return resolvedPath, nil
	}
	return absolutePath, nil
}
