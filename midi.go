package chendai

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

type strokeRef struct {
	instrument string
	category   string
}

// ImportSMF reads a standard MIDI file and converts it into a validated
// score using the per-definition MIDI note maps. Absolute event times come
// from the SMF tempo map, so tempo changes inside the file are honored.
// Percussive strokes take their duration from the instrument's decay range;
// tonal notes last until their matching note-off.
func ImportSMF(path string, defs DefinitionSet) (Score, error) {
	noteMap := make(map[uint8]strokeRef)
	for _, id := range defs.IDs() {
		def := defs[id]
		for note, category := range def.MIDINotes {
			if prev, dup := noteMap[note]; dup {
				return Score{}, fmt.Errorf("midi note %v mapped by both %v and %v", note, prev.instrument, id)
			}
			noteMap[note] = strokeRef{instrument: id, category: category}
		}
	}
	if len(noteMap) == 0 {
		return Score{}, fmt.Errorf("no instrument declares midi note mappings")
	}

	type openNote struct {
		index int // index into events
	}
	var events []Event
	open := make(map[uint8]openNote) // tonal notes awaiting note-off

	rd := smf.ReadTracks(path)
	rd.Do(func(te smf.TrackEvent) {
		at := float64(te.AbsMicroSeconds) / 1e6
		var ch, key, vel uint8
		switch {
		case te.Message.GetNoteStart(&ch, &key, &vel):
			ref, ok := noteMap[key]
			if !ok {
				return
			}
			def := defs[ref.instrument]
			ev := Event{
				Instrument: ref.instrument,
				Category:   ref.category,
				Time:       at,
				Velocity:   float32(vel) / 127,
				Duration:   float64(def.DecayMax),
			}
			events = append(events, ev)
			if def.Family == FamilyTonal {
				open[key] = openNote{index: len(events) - 1}
			}
		case te.Message.GetNoteEnd(&ch, &key):
			if on, ok := open[key]; ok {
				if d := at - events[on.index].Time; d > 0 {
					events[on.index].Duration = d
				}
				delete(open, key)
			}
		}
	})
	if err := rd.Error(); err != nil {
		return Score{}, fmt.Errorf("reading %v: %w", path, err)
	}
	return ValidateScore(defs, Score{Events: events})
}
