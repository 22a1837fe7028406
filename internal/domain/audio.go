package domain

// Audio is mono 16-bit PCM.
type Audio struct {
	SampleRate int
	Samples    []int16
}

func (a Audio) Empty() bool {
	return len(a.Samples) == 0
}
