package main

import (
	"fmt"
	"os"
)

type pair struct {
	name string
	n    int
}

var shared pair

func brand(p *pair) {
	p.name = os.Getenv("NAME")
}

func read() string {
	return shared.name
}

func main() {
	var p pair
	brand(&p)
	shared.name = os.Getenv("SHARED")
	fmt.Println(p.name, read())
}
