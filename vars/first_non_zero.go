package vars

// FirstNonZero returns the first value that is not the zero value of T.
func FirstNonZero[T comparable](values ...T) (ret T) {
	for _, value := range values {
		if value != ret {
			return value
		}
	}
	return
}
