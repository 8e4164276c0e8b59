package main

import "portapack/internal/portapack"

func main() {
	portapack.Main()
}
