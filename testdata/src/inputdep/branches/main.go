package main

import "os"

func classify(v string) int {
	mode := 0
	if v == "fast" { // @InputDep
		mode = 1
	} else {
		mode = 2
	}
	return mode // @InputDep
}

func main() {
	v := os.Getenv("MODE") // @InputDep
	n := classify(v)       // @InputDep
	_ = n
}
