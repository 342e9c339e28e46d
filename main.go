package main

import (
	"github.com/sergev/uft/adapter"

	_ "github.com/sergev/uft/greaseweazle"
	_ "github.com/sergev/uft/kryoflux"
	_ "github.com/sergev/uft/supercardpro"
)

func main() {
	adapter.Execute()
}
