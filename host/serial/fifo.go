package serial

// fifo is a circular receive buffer that hands out terminated lines
type fifo struct {
	buf   []byte
	read  int
	write int
	size  int
}

func newFifo(capacity int) *fifo {
	// One slot stays empty to tell full from empty
	return &fifo{
		buf:  make([]byte, capacity+1),
		size: capacity + 1,
	}
}

// Write appends data, returning how many bytes fit
func (f *fifo) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Available returns the number of bytes buffered
func (f *fifo) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Full reports whether no more bytes can be written
func (f *fifo) Full() bool {
	return (f.write+1)%f.size == f.read
}

// Line pops the bytes up to term, dropping term itself
func (f *fifo) Line(term byte) ([]byte, bool) {
	n := f.Available()
	for i := 0; i < n; i++ {
		if f.buf[(f.read+i)%f.size] == term {
			line := f.take(i)
			f.pop(1)
			return line, true
		}
	}
	return nil, false
}

// Drain pops everything
func (f *fifo) Drain() []byte {
	return f.take(f.Available())
}

func (f *fifo) take(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
	}
	return out
}

func (f *fifo) pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

// Reset clears the buffer
func (f *fifo) Reset() {
	f.read = 0
	f.write = 0
}
