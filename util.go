package slotdb

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
