package main

func compute() int {
	total := 0
	for i := 0; i < 10; i++ {
		total += i * i
	}
	return total
}

func main() {
	compute()
}
