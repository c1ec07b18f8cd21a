//go:build (rp2040 || rp2350) && !uartlinedebug

package main

import "github.com/jangala-dev/tinygo-uartline/uartline"

func printStats(*uartline.Manager) {}
