// Package gogit reads checkout identities and performs repairs in-process with go-git,
// for hosts without a git executable.
package gogit
