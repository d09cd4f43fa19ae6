package server

import "fmt"

// ANSI colours for the development route listing
const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"

	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// colouredMethod pads the method to a fixed width and colours it
func colouredMethod(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + padded + ResetColor
	}
	return Gray + padded + ResetColor
}
