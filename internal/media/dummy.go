package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// WriteSineWAV writes a mono 16-bit PCM WAV of the given length containing
// two distinct tones: 220Hz over the first 45% and 330Hz from 50% to 95%,
// with silence between. Two tones separated by a pause give a diarization
// model something to split, which makes the file usable as a quick
// end-to-end smoke input.
func WriteSineWAV(path string, durationS float64, sampleRate int) error {
	if durationS <= 0 || sampleRate <= 0 {
		return fmt.Errorf("dummy wav: duration and sample rate must be positive")
	}
	n := int(float64(sampleRate) * durationS)
	samples := make([]int16, n)

	firstEnd := int(float64(n) * 0.45)
	secondStart := int(float64(n) * 0.50)
	secondEnd := int(float64(n) * 0.95)
	for i := 0; i < firstEnd; i++ {
		t := float64(i) / float64(sampleRate)
		samples[i] = int16(0.5 * math.Sin(2*math.Pi*220*t) * math.MaxInt16)
	}
	for i := secondStart; i < secondEnd; i++ {
		t := float64(i) / float64(sampleRate)
		samples[i] = int16(0.5 * math.Sin(2*math.Pi*330*t) * math.MaxInt16)
	}

	dataLen := len(samples) * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(&buf, binary.LittleEndian, samples)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
