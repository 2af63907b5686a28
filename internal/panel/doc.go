// Package panel tracks what is known about the physical control panel:
// whether every microcontroller has finished booting and where the key
// switch sits. State is derived only from the inbound event stream.
//
// A State is owned by exactly one router. It is not safe for concurrent
// use; other goroutines observe it through Snapshot copies.
package panel
