// Package config defines how data files are loaded into the plain value
// trees an attached view renders.
//
// A Loader reads one file into a map of names to plain values (maps,
// slices, strings, numbers, booleans). The YAML loader in this package
// also reads JSON; the HCL loader lives in the hcl package.
package config
