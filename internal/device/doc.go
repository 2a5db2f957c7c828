// Package device turns entity-level intent into LampSmart commands.
//
// A Controller owns one fixture's addressing (stable id, group) and sends
// raw opcodes through the shared radio. Light and Fan sit on top of a
// Controller and translate state changes into command sequences:
//
//	Light off -> on at 50%, 4000K      TURN_ON, DIM(cw, ww)
//	Light brightness to 0              TURN_OFF
//	Fan speed 3                        GEAR(3, 0)
//	Fan direction reverse              GEAR(1, 0)
//
// Fleet groups every configured device by name and implements Operator, the
// interface shared with the bridge client so the CLI and terminal remote work
// the same way against a local radio or a remote bridge.
//
// Sends are fire-and-forget. A radio failure is returned to the caller but
// the entity state still advances, since there is no way to learn what the
// fixture actually received.
package device
