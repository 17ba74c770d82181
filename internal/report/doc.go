// Package report renders classified checkouts and persists the final mapping.
package report
