package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxPactlVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

type DuckConfig struct {
	// SelfNames are application.name values left untouched (our own TTS).
	SelfNames []string
	// Factor scales other streams' volume while ducked.
	Factor float64
	// MinVolume is the floor, in percent.
	MinVolume int
	Fade      time.Duration
}

// Ducker lowers every other PulseAudio/PipeWire sink input while the
// assistant speaks and restores them afterwards.
type Ducker struct {
	cfg DuckConfig
	run func(ctx context.Context, args ...string) ([]byte, error)

	mu       sync.Mutex
	active   bool
	original map[int]int
}

func NewDucker(cfg DuckConfig) *Ducker {
	cfg.MinVolume = clampPercent(cfg.MinVolume)
	if cfg.Factor <= 0 || cfg.Factor > 1 {
		cfg.Factor = 0.3
	}

	return &Ducker{
		cfg:      cfg,
		run:      pactl,
		original: make(map[int]int),
	}
}

// Duck fades foreign streams down to Factor of their current volume.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)

	var fades []fade
	for _, s := range inputs {
		to := int(math.Round(float64(s.Volume) * d.cfg.Factor))
		if to < d.cfg.MinVolume {
			to = d.cfg.MinVolume
		}
		d.original[s.ID] = s.Volume
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: clampPercent(to)})
	}

	if err := d.apply(ctx, fades); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Restore fades ducked streams back. Streams that appeared after Duck are
// left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, s := range inputs {
		orig, ok := d.original[s.ID]
		if !ok {
			continue
		}
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.apply(ctx, fades); err != nil {
		return err
	}

	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.run(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var res []sinkInput
	for _, s := range parseSinkInputs(string(out)) {
		if d.isSelf(s) {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func (d *Ducker) isSelf(s sinkInput) bool {
	for _, name := range d.cfg.SelfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

// apply steps every fade linearly over cfg.Fade in 10ms increments.
func (d *Ducker) apply(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := int(d.cfg.Fade / minStep)
	if steps < 1 {
		steps = 1
	}
	stepDur := d.cfg.Fade / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			arg := fmt.Sprintf("%d%%", clampPercent(v))
			if _, err := d.run(ctx, "set-sink-input-volume", strconv.Itoa(f.id), arg); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}

		if i < steps && stepDur > 0 {
			time.Sleep(stepDur)
		}
	}
	return nil
}

// parseSinkInputs reads `pactl list sink-inputs` output.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range blocks[1:] {
		head, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			continue
		}

		s := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			switch {
			case strings.HasPrefix(line, "Volume:") && s.Volume == 0:
				if m := percentRe.FindStringSubmatch(line); len(m) == 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			case strings.HasPrefix(line, "application.name =") && s.AppName == "":
				// application.name = "Firefox"
				_, rest, _ := strings.Cut(line, "\"")
				name, _, ok := strings.Cut(rest, "\"")
				if ok {
					s.AppName = name
				}
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}
	return res
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > maxPactlVolume {
		return maxPactlVolume
	}
	return p
}

func pactl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "pactl", args...).Output()
}
