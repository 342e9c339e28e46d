package kryoflux

import (
	"bytes"
	"fmt"
	"time"
)

// USB endpoint layout of the KryoFlux DiskSystem. The board presents a
// single vendor-specific interface with three endpoints: a bulk OUT pipe
// for ASCII host commands, a bulk IN pipe that echoes the command ACK, and
// a second bulk IN pipe that carries the raw flux stream.
const (
	usbConfigNum    = 1
	usbInterfaceNum = 0
	usbAltSetting   = 0

	usbBulkOutEndpoint = 1 // host -> device: ASCII commands
	usbCmdInEndpoint   = 1 // device -> host: command ACKs (same endpoint number, IN direction)
	usbBulkInEndpoint  = 2 // device -> host: flux stream
)

// ReadBufferSize is the chunk size used when draining the flux stream pipe.
const ReadBufferSize = 0x10000

// DebugFlag enables verbose tracing of the stream decoder.
const DebugFlag = false

// DefaultSampleClock and DefaultIndexClock are the nominal KryoFlux master
// sample and index clocks (Hz), used to convert raw tick counts to
// nanoseconds. Clock values reported in a KFInfo block are not used.
const (
	DefaultSampleClock = 24027428.5714285
	DefaultIndexClock  = 3003428.5714285625
)

// RequestStream is the host command code used to start or stop flux stream
// capture.
const RequestStream = 0x01

// IndexTiming records a single index pulse observed in a KryoFlux stream,
// as decoded from an OOB Index block (type 0x02).
type IndexTiming struct {
	streamPosition uint32
	sampleCounter  uint32
	indexCounter   uint32
}

// DecodedStreamData holds the flux transitions and index pulses recovered
// from a single KryoFlux stream capture.
type DecodedStreamData struct {
	FluxTransitions []uint64
	IndexPulses     []IndexTiming
}

// sendCommand writes a newline-terminated ASCII command to the device and
// waits for its single-line acknowledgement.
func (c *Client) sendCommand(cmd string) error {
	_, err := c.bulkOut.Write([]byte(cmd + "\n"))
	if err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}
	return c.readAck()
}

// readAck reads the device's command acknowledgement line. The device
// replies with "0\n" on success and a nonzero error code otherwise.
func (c *Client) readAck() error {
	buf := make([]byte, 64)
	n, err := c.cmdIn.Read(buf)
	if err != nil {
		return fmt.Errorf("failed to read command ack: %w", err)
	}
	reply := bytes.TrimSpace(buf[:n])
	if len(reply) > 0 && reply[0] != '0' {
		return fmt.Errorf("device rejected command: %s", reply)
	}
	return nil
}

// controlIn issues a stream-control request (start/stop streaming) and,
// when drain is true, reads and discards any flux data left buffered on
// the bulk IN pipe so the next capture starts from a clean stream.
func (c *Client) controlIn(request byte, value uint16, drain bool) (int, error) {
	if err := c.sendCommand(fmt.Sprintf("control%d:%d", request, value)); err != nil {
		return 0, err
	}
	if !drain {
		return 0, nil
	}

	total := 0
	buf := make([]byte, ReadBufferSize)
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		n, err := c.bulkIn.Read(buf)
		if err != nil || n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

// streamOn starts flux stream capture on the currently selected track/side.
func (c *Client) streamOn() error {
	_, err := c.controlIn(RequestStream, 1, false)
	return err
}

// configure sets the device unit, density and track range prior to
// capturing a disk. density follows the KryoFlux convention of 0 for
// automatic density detection.
func (c *Client) configure(device, density, minTrack, maxTrack int) error {
	if err := c.sendCommand(fmt.Sprintf("device%d", device)); err != nil {
		return fmt.Errorf("failed to select device: %w", err)
	}
	if err := c.sendCommand(fmt.Sprintf("density%d", density)); err != nil {
		return fmt.Errorf("failed to set density: %w", err)
	}
	if err := c.sendCommand(fmt.Sprintf("minmax%d:%d", minTrack, maxTrack)); err != nil {
		return fmt.Errorf("failed to set track range: %w", err)
	}
	return nil
}

// motorOn positions the head over the given cylinder/side and spins up the
// drive motor.
func (c *Client) motorOn(side, cyl int) error {
	if err := c.sendCommand(fmt.Sprintf("side%d", side)); err != nil {
		return fmt.Errorf("failed to select side: %w", err)
	}
	if err := c.sendCommand(fmt.Sprintf("seek%d", cyl)); err != nil {
		return fmt.Errorf("failed to seek to cylinder %d: %w", cyl, err)
	}
	if err := c.sendCommand("motor:1"); err != nil {
		return fmt.Errorf("failed to start motor: %w", err)
	}
	return nil
}

// motorOff stops the drive motor.
func (c *Client) motorOff() error {
	return c.sendCommand("motor:0")
}
