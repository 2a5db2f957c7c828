// Package server implements the lampsmart network bridge.
//
// A bridge is a host with a Bluetooth controller, usually a small board
// mounted near the fixtures. It exposes the device fleet over HTTP so that
// other machines (and the terminal remote) can command lights and fans
// without a radio of their own.
//
// # HTTP API
//
//	GET  /healthz                          Liveness and version
//	GET  /metrics                          Prometheus metrics
//	GET  /api/devices                      List devices with state
//	GET  /api/devices/{name}               One device
//	POST /api/devices/{name}/pair          PAIR with the device's host id
//	POST /api/devices/{name}/unpair        UNPAIR
//	POST /api/devices/{name}/on            Turn light or fan on
//	POST /api/devices/{name}/off           Turn light or fan off
//	POST /api/devices/{name}/light         Body: {"state":true,"brightness":0.5,"color_temperature":250}
//	POST /api/devices/{name}/fan           Body: {"speed":3,"direction":"reverse"}
//	POST /api/devices/{name}/command       Body: {"opcode":"dim","arg1":128,"arg2":0}
//	GET  /api/events                       WebSocket stream of transmissions
//
// Every command endpoint blocks until the radio has finished advertising,
// typically one second per packet. Radio failures are reported as 502 with
// the device state already updated.
//
// # Event Stream
//
// Each transmission is decoded and pushed to every WebSocket subscriber as
// a JSON Event. Slow subscribers drop events rather than stall the radio.
//
// # Discovery
//
// When Config.Announce is set the bridge registers itself over mDNS as
// _lampsmart._tcp with TXT records version= and devices=.
//
// # Usage Example
//
//	tx := radio.NewTransmitter(adv)
//	fleet, _ := device.NewFleet(registry, tx)
//
//	srv, err := server.New(&server.Config{Port: 8750, Announce: true}, fleet, tx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until ctx is cancelled or SIGINT/SIGTERM
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server:
//  1. Withdraws the mDNS announcement
//  2. Stops accepting new requests
//  3. Closes event subscribers
//  4. Waits for in-flight commands to finish advertising
package server
