package kryoflux

import "fmt"

// Erase erases the floppy disk
func (c *Client) Erase(numberOfTracks int) error {
	return fmt.Errorf("Erase is not supported for KryoFlux adapter")
}
