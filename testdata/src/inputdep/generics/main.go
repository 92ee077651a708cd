package main

import (
	"fmt"
	"os"
)

func tag[T any](v T) string {
	return fmt.Sprint(v)
}

func main() {
	fmt.Println(tag(os.Getenv("MODE")))
	fmt.Println(tag(42))
}
