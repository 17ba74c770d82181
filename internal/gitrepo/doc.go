// Package gitrepo reads checkout identities and performs repairs by invoking the git CLI.
//
// RepositoryInspector runs a fixed set of read-only git queries against one checkout,
// RepositoryOperator clones and checks out references, and ResolveLinkage detects
// checkouts that share another checkout's metadata store.
package gitrepo
