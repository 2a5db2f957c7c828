// Package radio drives the BLE controller that broadcasts encoded packets.
//
// The controller can hold only one advertising payload at a time, so every
// send is a four-step sequence performed under one lock:
//
//  1. Configure: set advertising parameters and the 31-byte payload
//  2. Start: enable advertising
//  3. Hold: keep advertising for the device's transmission duration
//  4. Stop: disable advertising
//
// Transmitter is the exclusive-access handle wrapping an Advertiser. A
// failed step is logged, counted and reported to the caller, but the
// remaining steps still run: the protocol has no acknowledgment, so a
// partially failed send is no worse than a missed one.
//
// # Implementations
//
//   - HCIAdvertiser: Linux raw HCI socket (hciN), LE legacy advertising commands
//   - Recorder: in-memory advertiser for tests and dry runs
//
// # Usage Example
//
//	adv, err := radio.OpenHCI(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tx := radio.NewTransmitter(adv)
//	defer tx.Close()
//
//	if err := tx.Send(pkt.Payload(), time.Second); err != nil {
//	    log.Printf("send completed with errors: %v", err)
//	}
package radio
