package input

// BufferDepth is the number of samples kept per channel.
const BufferDepth = 3

// SampleBuffer keeps the latest BufferDepth raw samples of every
// channel, newest first. Indices are not checked.
type SampleBuffer struct {
	samples [ChannelCount][BufferDepth]int16
	heads   [ChannelCount]int
}

// Push inserts a sample, evicting the oldest.
func (b *SampleBuffer) Push(channel int, value int16) {
	h := b.heads[channel] - 1
	if h < 0 {
		h = BufferDepth - 1
	}
	b.samples[channel][h] = value
	b.heads[channel] = h
}

// Read returns the sample age slots back, 0 is the newest.
func (b *SampleBuffer) Read(channel, age int) int16 {
	return b.samples[channel][(b.heads[channel]+age)%BufferDepth]
}

// Average is the mean of the two newest samples.
func (b *SampleBuffer) Average(channel int) float64 {
	return b.AverageAt(channel, 0)
}

// AverageAt is the mean of the samples at age and age+1.
func (b *SampleBuffer) AverageAt(channel, age int) float64 {
	return (float64(b.Read(channel, age)) + float64(b.Read(channel, age+1))) / 2
}

// Fill sets the whole history of a channel to value.
func (b *SampleBuffer) Fill(channel int, value int16) {
	for n := range b.samples[channel] {
		b.samples[channel][n] = value
	}
	b.heads[channel] = 0
}
