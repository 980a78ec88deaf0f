//go:build ci

package sound

type Player struct{}

func NewPlayer(dir string) *Player {
	return &Player{}
}

func (p *Player) Init() error {
	return nil
}

func (p *Player) Play(cue Cue) {
	// No-op
}

func (p *Player) Close() {
	// No-op
}
