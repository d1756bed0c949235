package speech

import (
	"bytes"
	"encoding/binary"

	"github.com/go-audio/wav"
)

// recognizerSampleRate is the sample rate the recognizer expects.
const recognizerSampleRate = 16000

// decodeWAV decodes a WAV container into mono float32 samples in [-1, 1]
// plus the source sample rate. Multi-channel input keeps only the first
// channel; voice recordings are mono in practice.
func decodeWAV(audio []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(audio))
	if !dec.IsValidFile() {
		return nil, 0, errorf(KindDecodeFailed, "not a valid wav container")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, errorf(KindDecodeFailed, "read pcm: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errorf(KindDecodeFailed, "wav contains no samples")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))
	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/scale)
	}
	return samples, buf.Format.SampleRate, nil
}

// downsample decimates samples from sourceRate to targetRate by
// nearest-sample selection. Band-limited resampling is not needed here:
// voice-frequency content dominates and the recognizer tolerates minor
// aliasing.
func downsample(samples []float32, sourceRate, targetRate int) []float32 {
	if sourceRate == targetRate || sourceRate <= 0 || targetRate <= 0 {
		return samples
	}
	ratio := float64(sourceRate) / float64(targetRate)
	newLen := int(float64(len(samples))/ratio + 0.5)
	out := make([]float32, 0, newLen)
	for i := 0; i < newLen; i++ {
		pos := int(float64(i) * ratio)
		if pos >= len(samples) {
			break
		}
		out = append(out, samples[pos])
	}
	return out
}

// convertFloat32ToInt16 converts float PCM to 16-bit signed integers,
// hard-clamping to [-1, 1] first to avoid overflow artifacts.
func convertFloat32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7FFF)
		}
	}
	return out
}

// encodeWAV16kMono wraps int16 samples in a minimal RIFF header at the
// recognizer sample rate (16 kHz, mono, 16-bit little-endian).
func encodeWAV16kMono(samples []int16) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * 2
	byteRate := recognizerSampleRate * numChannels * bitsPerSample / 8

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(numChannels))
	binary.Write(&b, binary.LittleEndian, uint32(recognizerSampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(byteRate))
	binary.Write(&b, binary.LittleEndian, uint16(numChannels*bitsPerSample/8))
	binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(dataLen))
	binary.Write(&b, binary.LittleEndian, samples)
	return b.Bytes()
}

// prepareForRecognition converts an arbitrary WAV recording into the 16 kHz
// mono 16-bit payload the recognizer expects.
func prepareForRecognition(audio []byte) ([]byte, error) {
	samples, rate, err := decodeWAV(audio)
	if err != nil {
		return nil, err
	}
	if rate != recognizerSampleRate {
		samples = downsample(samples, rate, recognizerSampleRate)
	}
	if len(samples) == 0 {
		return nil, errorf(KindDecodeFailed, "no samples after resampling from %d Hz", rate)
	}
	return encodeWAV16kMono(convertFloat32ToInt16(samples)), nil
}
