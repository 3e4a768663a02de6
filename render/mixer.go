package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/fx"
)

// Send bus tunings. One reverb and one delay are shared by every channel;
// the per-channel send levels decide how much each contributes.
const (
	reverbRoomSize = 0.6
	reverbDamping  = 0.4
	delayTime      = 0.25
	delayFeedback  = 0.4
)

// Mix folds the per-instrument channel buffers into the stereo master.
//
// Channel selection follows console rules: if any strip is soloed only the
// soloed strips sound, otherwise everything not muted sounds. Each sounding
// channel runs through its strip (EQ, pan, width, volume) and feeds the
// shared reverb and delay buses post-fader; each bus is processed once and
// added back at unity. A strip at its defaults bypasses the chain entirely,
// so mixing a single channel at defaults reproduces it bit-exactly.
//
// The master is normalized to the configured headroom only when it
// actually overshoots full scale; quiet mixes are left untouched.
func Mix(channels map[string]*chendai.Buffer, params map[string]chendai.MixParameters, cfg chendai.Config) (*chendai.Buffer, error) {
	if len(channels) == 0 {
		return nil, &chendai.RenderError{Stage: "mix", Err: errors.New("no channels to mix")}
	}
	ids := make([]string, 0, len(channels))
	frames := -1
	for id, ch := range channels {
		if frames == -1 {
			frames = ch.Frames()
		} else if ch.Frames() != frames {
			return nil, &chendai.RenderError{Stage: "mix", Err: fmt.Errorf("channel %v is %v frames, expected %v", id, ch.Frames(), frames)}
		}
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic summation order

	strip := func(id string) chendai.MixParameters {
		if p, ok := params[id]; ok {
			return p.Clamp()
		}
		return chendai.DefaultMixParameters()
	}
	anySolo := false
	for _, id := range ids {
		if strip(id).Solo {
			anySolo = true
			break
		}
	}
	sounding := func(p chendai.MixParameters) bool {
		if anySolo {
			return p.Solo
		}
		return !p.Mute
	}

	master := chendai.NewBuffer(frames)
	var reverbBus, delayBus *chendai.Buffer
	for _, id := range ids {
		p := strip(id)
		if !sounding(p) {
			continue
		}
		ch := channels[id]
		if p.IsIdentity() && p.ReverbSend == 0 && p.DelaySend == 0 {
			master.Accumulate(ch)
			continue
		}
		var eq *fx.EQ3Band
		if p.EQLow != 0 || p.EQMid != 0 || p.EQHigh != 0 {
			eq = fx.NewEQ3Band(chendai.SampleRate, p.EQLow, p.EQMid, p.EQHigh)
		}
		panL, panR := fx.PanGains(p.Pan)
		if p.ReverbSend > 0 && reverbBus == nil {
			reverbBus = chendai.NewBuffer(frames)
		}
		if p.DelaySend > 0 && delayBus == nil {
			delayBus = chendai.NewBuffer(frames)
		}
		for i := 0; i < frames; i++ {
			l, r := ch.L[i], ch.R[i]
			if eq != nil {
				l, r = eq.Process(l, r)
			}
			if p.Width != 1 {
				l, r = fx.Width(l, r, p.Width)
			}
			l *= panL * p.Volume
			r *= panR * p.Volume
			master.L[i] += l
			master.R[i] += r
			if p.ReverbSend > 0 {
				reverbBus.L[i] += l * p.ReverbSend
				reverbBus.R[i] += r * p.ReverbSend
			}
			if p.DelaySend > 0 {
				delayBus.L[i] += l * p.DelaySend
				delayBus.R[i] += r * p.DelaySend
			}
		}
	}

	if reverbBus != nil {
		rv := fx.NewReverb(reverbRoomSize, reverbDamping)
		for i := 0; i < frames; i++ {
			wl, wr := rv.Process(reverbBus.L[i], reverbBus.R[i])
			master.L[i] += wl
			master.R[i] += wr
		}
	}
	if delayBus != nil {
		dl := fx.NewDelay(chendai.SampleRate, delayTime, delayFeedback)
		for i := 0; i < frames; i++ {
			wl, wr := dl.Process(delayBus.L[i], delayBus.R[i])
			master.L[i] += wl
			master.R[i] += wr
		}
	}

	if peak := master.Peak(); peak > 1 {
		master.Scale(cfg.MasterHeadroom / peak)
	}
	return master, nil
}
