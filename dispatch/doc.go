// Package dispatch selects the dashboard variant for the signed-in role and
// lists the capabilities each variant offers.
//
// [SelectView] is a pure mapping over the closed role enumeration. Adding a
// role to estateauth without adding its view here fails to compile.
package dispatch
