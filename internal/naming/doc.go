// Package naming provides consistent naming functions for declared resources.
//
// Names are derived only from the cluster identifier, the project name and the
// node pool index, so the same configuration always yields the same names.
package naming
