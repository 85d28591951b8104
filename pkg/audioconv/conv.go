// Package audioconv decodes recorded audio files into the 16 kHz mono float32
// PCM that whisper expects.
package audioconv

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

type Options struct {
	// MaxSamples truncates the output; zero keeps everything.
	MaxSamples int
}

// raw is decoded, still interleaved audio at its native rate.
type raw struct {
	pcm      []float32
	rate     int
	channels int
}

type decodeFunc func(io.ReadSeeker) (raw, error)

var byExt = map[string]decodeFunc{
	".wav": decodeWAV,
	".mp3": decodeMP3,
	".ogg": decodeOgg,
	".oga": decodeOgg,
}

var byMagic = map[string]decodeFunc{
	"RIFF": decodeWAV,
	"OggS": decodeOgg,
	"ID3\x03": decodeMP3,
	"ID3\x04": decodeMP3,
}

// FileTo16k decodes the file at path and returns mono PCM at TargetRate.
func FileTo16k(_ context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := pick(f, path)
	if err != nil {
		return nil, err
	}

	r, err := dec(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	return normalize(r, opt), nil
}

func pick(f io.ReadSeeker, path string) (decodeFunc, error) {
	if dec, ok := byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return dec, nil
	}

	magic := make([]byte, 4)
	n, _ := io.ReadFull(f, magic)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if dec, ok := byMagic[string(magic[:n])]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("unsupported format: %s (supported: wav/mp3/ogg-vorbis/ogg-opus)", path)
}

func normalize(r raw, opt Options) []float32 {
	x := downmix(r.pcm, r.channels)
	x = resampleLinear(x, r.rate, TargetRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}

func decodeWAV(r io.ReadSeeker) (raw, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return raw{}, errors.New("invalid wav")
	}

	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return raw{}, err
	}
	if pb == nil || len(pb.Data) == 0 {
		return raw{}, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	out := raw{
		pcm:      intsToFloat(pb.Data, depth),
		rate:     int(dec.SampleRate),
		channels: int(dec.NumChans),
	}
	if pb.Format != nil {
		out.rate = pb.Format.SampleRate
		out.channels = pb.Format.NumChannels
	}
	return out, nil
}

// decodeMP3 relies on go-mp3 always producing 16-bit little-endian stereo.
func decodeMP3(r io.ReadSeeker) (raw, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return raw{}, err
	}

	var b bytes.Buffer
	if _, err := io.Copy(&b, dec); err != nil {
		return raw{}, err
	}

	ints := make([]int16, b.Len()/2)
	if err := binary.Read(&b, binary.LittleEndian, ints); err != nil {
		return raw{}, err
	}

	return raw{pcm: int16sToFloat(ints), rate: dec.SampleRate(), channels: 2}, nil
}

// decodeOgg tries Vorbis first, then Opus.
func decodeOgg(r io.ReadSeeker) (raw, error) {
	v, verr := decodeVorbis(r)
	if verr == nil {
		return v, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return raw{}, err
	}

	o, oerr := decodeOpus(r)
	if oerr != nil {
		return raw{}, fmt.Errorf("ogg: vorbis: %v; opus: %w", verr, oerr)
	}
	return o, nil
}

func decodeVorbis(r io.Reader) (raw, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return raw{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return raw{}, errors.New("invalid ogg/vorbis stream")
	}
	return raw{pcm: pcm, rate: format.SampleRate, channels: format.Channels}, nil
}

// decodeOpus reads int16 PCM which libopusfile always delivers at 48 kHz.
func decodeOpus(r io.ReadSeeker) (raw, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return raw{}, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var (
		pcm []float32
		buf = make([]int16, 24_000*ch)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16sToFloat(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw{}, err
		}
	}

	return raw{pcm: pcm, rate: 48000, channels: ch}, nil
}

func intsToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1, 1))
	}
	return out
}

func int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}

	n := len(in) / channels
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, from, to int) []float32 {
	if from <= 0 || from == to || len(in) == 0 {
		return in
	}

	ratio := float64(to) / float64(from)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	last := len(in) - 1

	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i0+1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
