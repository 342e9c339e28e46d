package kryoflux

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/sergev/uft/adapter"

	"go.bug.st/serial/enumerator"
)

const (
	VendorID  = 0x03eb
	ProductID = 0x6124
)

func init() {
	adapter.RegisterUSBAdapter(NewClient)
}

// Client wraps a raw USB bulk connection to a KryoFlux DiskSystem. Unlike
// Greaseweazle and SuperCard Pro, a real KryoFlux board enumerates as a
// vendor-specific USB device rather than a virtual serial port, so it is
// opened through gousb instead of go.bug.st/serial.
type Client struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	bulkIn  *gousb.InEndpoint
	bulkOut *gousb.OutEndpoint
	cmdIn   *gousb.InEndpoint

	serialNumber string
}

// NewClient opens the first attached KryoFlux device it finds. portDetails
// is always nil here: the adapter registry dispatches USB-only adapters
// (registered with RegisterUSBAdapter) without a serial port enumeration,
// since the KryoFlux board is discovered directly through libusb by VID/PID.
func NewClient(portDetails *enumerator.PortDetails) (adapter.FloppyAdapter, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open KryoFlux USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("no KryoFlux device found (VID=0x%04x PID=0x%04x)", VendorID, ProductID)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to set auto-detach: %w", err)
	}

	cfg, err := dev.Config(usbConfigNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim USB configuration: %w", err)
	}

	intf, err := cfg.Interface(usbInterfaceNum, usbAltSetting)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim USB interface: %w", err)
	}

	bulkIn, err := intf.InEndpoint(usbBulkInEndpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk IN endpoint: %w", err)
	}

	bulkOut, err := intf.OutEndpoint(usbBulkOutEndpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk OUT endpoint: %w", err)
	}

	cmdIn, err := intf.InEndpoint(usbCmdInEndpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open command ACK endpoint: %w", err)
	}

	serialNumber := fmt.Sprintf("bus%d-addr%d", dev.Desc.Bus, dev.Desc.Address)

	client := &Client{
		ctx:          ctx,
		dev:          dev,
		cfg:          cfg,
		intf:         intf,
		bulkIn:       bulkIn,
		bulkOut:      bulkOut,
		cmdIn:        cmdIn,
		serialNumber: serialNumber,
	}

	return client, nil
}

// PrintStatus prints KryoFlux status information to stdout
func (c *Client) PrintStatus() {
	fmt.Printf("KryoFlux Adapter\n")
	fmt.Printf("Serial Number: %s\n", c.serialNumber)
	fmt.Printf("Transport: USB bulk (VID=0x%04x PID=0x%04x)\n", VendorID, ProductID)
	fmt.Printf("Status: Connected\n")
}

// Close releases the USB interface and device handles.
func (c *Client) Close() error {
	if c.intf != nil {
		c.intf.Close()
	}
	if c.cfg != nil {
		c.cfg.Close()
	}
	var err error
	if c.dev != nil {
		err = c.dev.Close()
	}
	if c.ctx != nil {
		c.ctx.Close()
	}
	return err
}
