package parallel

// Pipeline runs run(i, prepare(i)) for i from 0 to n-1 in order. While
// item i runs, item i+1 is prepared on another goroutine.
func Pipeline[T any](n int, prepare func(int) T, run func(int, T)) {
	if n <= 0 {
		return
	}
	next := make(chan T, 1)
	go func() { next <- prepare(0) }()
	for i := 0; i < n; i++ {
		cur := <-next
		if i+1 < n {
			go func(j int) { next <- prepare(j) }(i + 1)
		}
		run(i, cur)
	}
}
