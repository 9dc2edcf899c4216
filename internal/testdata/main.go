// Package testdata holds a small chart covering every instrument.
package testdata

import (
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/parser"
)

func GetChart() (*chart.SongChart, error) {
	p := parser.DefaultParser{}
	return p.Decode([]byte(Data), ".")
}

// Data is a chart document at 480 ticks per beat. The tempo changes from
// 120 to 150 BPM at the start of the third measure.
const Data = `
name: Test Song
artist: Test Artist
charter: Test Charter
resolution: 480
tempos:
  - {tick: 0, bpm: 120}
  - {tick: 3840, bpm: 150}
signatures:
  - {tick: 0, numerator: 4, denominator: 4}

tracks:
  - instrument: guitar
    difficulty: expert
    notes:
      - {tick: 1920, lane: 1}
      - {tick: 2400, lane: 1}
      - {tick: 2400, lane: 2}
      - {tick: 2640, lane: 3, type: hopo}
      - {tick: 2880, lane: 3}
      - {tick: 3360, lane: 5, length: 480}
      - {tick: 4320, lane: 0}
      - {tick: 4800, lane: 4, type: tap}
      - {tick: 5280, lane: 2}
      - {tick: 5760, lane: 1}
    phrases:
      - {type: star_power, tick: 1920, length: 960}
      - {type: star_power, tick: 4320, length: 960}
      - {type: solo, tick: 4800, length: 1000}

  - instrument: prodrums
    difficulty: expert
    notes:
      - {tick: 1920, lane: 0}
      - {tick: 1920, lane: 1}
      - {tick: 2400, lane: 5}
      - {tick: 2880, lane: 2, type: accent}
      - {tick: 3360, lane: 3, type: ghost}
      - {tick: 3840, lane: 0}
      - {tick: 3840, lane: 7}
      - {tick: 4320, lane: 4}
    phrases:
      - {type: star_power, tick: 1920, length: 500}
      - {type: drum_fill, tick: 3600, length: 300}

  - instrument: prokeys
    difficulty: expert
    notes:
      - {tick: 1920, lane: 0}
      - {tick: 2400, lane: 4}
      - {tick: 2400, lane: 7}
      - {tick: 2880, lane: 12, length: 480}
      - {tick: 3840, lane: 24, type: glissando}
    range_shifts:
      - {tick: 0, key: 0, size: 25}

vocals:
  - instrument: vocals
    phrases:
      - tick: 1920
        length: 1920
        star_power: true
        notes:
          - {tick: 1920, length: 480, pitch: 60, lyric: "la"}
          - {tick: 2880, length: 480, pitch: 64, lyric: "la"}
      - tick: 4320
        length: 1440
        notes:
          - {tick: 4320, length: 240, pitch: 62, lyric: "oh", slides: [{tick: 4800, length: 240, pitch: 65}]}
          - {tick: 5280, percussion: true}
`
