package main

import "encoding/json"

func main() {
	data := []byte(`{"n": 1}`)
	var v map[string]int
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}
	if v["n"] > 0 {
		println("positive")
	}
}
