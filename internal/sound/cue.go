// Package sound plays short cues when the scoreboard changes.
package sound

import "github.com/palemoky/tagracer/internal/store"

// Cue names a sound. Files under the sound directory are matched by base
// name, e.g. score.wav.
type Cue string

const (
	CueScore    Cue = "score"
	CueGameOver Cue = "gameover"
	CueStart    Cue = "start"
)

// CuesFor returns the cues implied by moving from prev to next.
func CuesFor(prev, next store.Snapshot) []Cue {
	var cues []Cue

	switch {
	case prev.Session != nil && next.Session == nil:
		cues = append(cues, CueGameOver)
	case next.Session != nil && (prev.Session == nil || prev.Session.GameID != next.Session.GameID):
		cues = append(cues, CueStart)
	}

	if latest, ok := next.LatestActivity(); ok {
		if before, ok := prev.LatestActivity(); !ok || before.ID != latest.ID {
			cues = append(cues, CueScore)
		}
	}
	return cues
}
