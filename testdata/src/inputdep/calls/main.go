package main

import (
	"os"
	"strings"
)

func shout(s string) string {
	return strings.ToUpper(s)
}

func main() {
	fixed := shout("hello")
	fromEnv := shout(os.Getenv("GREETING"))
	_ = fixed
	_ = fromEnv
}
