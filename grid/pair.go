package grid

// Pair holds the two state buffers iteration passes alternate between.
// A pass reads Src and writes Dst; Swap makes the freshly written buffer
// the next source.
type Pair struct {
	buffers    [2]*Buffer
	readIndex  int
	writeIndex int
}

func NewPair(width, height int) (*Pair, error) {
	p := &Pair{
		readIndex:  0,
		writeIndex: 1,
	}

	for i := range p.buffers {
		b, err := NewBuffer(width, height)
		if err != nil {
			return nil, err
		}
		p.buffers[i] = b
	}

	return p, nil
}

func (p *Pair) Src() *Buffer { return p.buffers[p.readIndex] }
func (p *Pair) Dst() *Buffer { return p.buffers[p.writeIndex] }

func (p *Pair) Swap() {
	p.readIndex, p.writeIndex = p.writeIndex, p.readIndex
}

// Reset returns both buffers to the initial state.
func (p *Pair) Reset() {
	for _, b := range p.buffers {
		b.Reset()
	}
	p.readIndex, p.writeIndex = 0, 1
}
