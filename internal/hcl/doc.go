// Package hcl provides the HCL flavoured pieces of viewbind: an expression
// Compiler for HCL native syntax, the Go <-> cty value conversion both
// directions need, and a Loader that reads a data context from the top-level
// attributes of an .hcl file.
package hcl
