// Package permission maps named capabilities to bits of a 64-bit mask and
// binds role names to masks.
//
// Bit positions are assigned by [Registry.Register] in call order and are
// stable for the lifetime of the registry. Freeze both the [Registry] and
// the [RoleManager] once setup is done.
//
// This package is a pure in-memory structure. It does not import
// estateauth.
package permission
