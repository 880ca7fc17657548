// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries interpolation state across chunks and can downmix to mono
package resample

// Resampler performs linear interpolation to convert between sample rates.
// It is stateful: the last input frame of each call is kept so that
// consecutive chunks join without a gap or a click.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64
	position   float64 // read position relative to prev
	prev       []int32 // last frame of the previous call
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		prev:       make([]int32, channels),
	}
}

// OutputLen returns an upper bound on the number of samples Process can
// produce for inputSamples interleaved samples.
func (r *Resampler) OutputLen(inputSamples int) int {
	frames := inputSamples/r.channels + 1
	return (int(float64(frames)/r.step) + 2) * r.channels
}

// Process resamples one chunk of interleaved input and returns the output.
func (r *Resampler) Process(input []int32) []int32 {
	frames := len(input) / r.channels
	if frames == 0 {
		return nil
	}
	if r.inputRate == r.outputRate {
		out := make([]int32, frames*r.channels)
		copy(out, input)
		return out
	}

	if !r.primed {
		copy(r.prev, input[:r.channels])
		r.primed = true
	}

	// Frame 0 is prev, frames 1..n are the input.
	at := func(i, ch int) int32 {
		if i == 0 {
			return r.prev[ch]
		}
		return input[(i-1)*r.channels+ch]
	}

	out := make([]int32, 0, r.OutputLen(len(input)))
	for r.position < float64(frames) {
		i := int(r.position)
		frac := r.position - float64(i)
		for ch := 0; ch < r.channels; ch++ {
			a := float64(at(i, ch))
			b := float64(at(i+1, ch))
			out = append(out, int32(a+(b-a)*frac))
		}
		r.position += r.step
	}

	r.position -= float64(frames)
	copy(r.prev, input[(frames-1)*r.channels:frames*r.channels])
	return out
}

// Reset clears the carried state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// Downmix averages interleaved frames down to a single channel.
func Downmix(input []int32, channels int) []int32 {
	if channels <= 1 {
		return input
	}
	out := make([]int32, len(input)/channels)
	for i := range out {
		var sum int64
		for ch := 0; ch < channels; ch++ {
			sum += int64(input[i*channels+ch])
		}
		out[i] = int32(sum / int64(channels))
	}
	return out
}
