package adapter

import (
	"go.bug.st/serial/enumerator"

	"github.com/sergev/uft/hfe"
)

// FloppyAdapter defines the interface for floppy disk adapters
type FloppyAdapter interface {
	// PrintStatus prints adapter status information to stdout
	PrintStatus()
	// Read reads numCylinders tracks from the floppy disk
	Read(numCylinders int) (*hfe.Disk, error)
	// Write writes numCylinders tracks of disk to the floppy disk
	Write(disk *hfe.Disk, numCylinders int) error
	// Erase erases numCylinders tracks of the floppy disk
	Erase(numCylinders int) error
}

// NewClientFunc is a function type that creates a new adapter client
type NewClientFunc func(portDetails *enumerator.PortDetails) (FloppyAdapter, error)

