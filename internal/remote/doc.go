// Package remote is an interactive terminal remote control for lampsmart
// devices.
//
// The remote lists every device from a device.Operator (a local Fleet or a
// bridge Client) and sends commands for the highlighted one:
//
//	enter/space  toggle power
//	+ / -        brightness (lights) or speed (fans)
//	w / c        warmer or cooler white (lights)
//	d            reverse fan direction
//	o            toggle oscillation (tracked only, fans have no opcode for it)
//	p            pair
//	u u          unpair (press twice)
//	r            refresh
//	/            filter devices
//	q            quit
//
// Commands block for the device's transmission duration, so only one runs
// at a time and a spinner shows while it is on the air. When an event
// channel is supplied the footer shows the last decoded transmission.
package remote
