package lobby

// Endpoint is one player's transport. Send must never block: a full or
// closed connection drops the payload for that recipient only.
type Endpoint interface {
	ID() string
	Send(payload []byte)
}

// Player is a per-connection identity inside a lobby. The struct survives
// reconnection: the endpoint reference is swapped while id, score and
// cursor carry over.
type Player struct {
	ID     string
	Name   string
	Score  int
	Cursor int
	Ep     Endpoint

	// joinSeq orders players by first admission; host succession promotes
	// the lowest remaining sequence.
	joinSeq int
}

func (p *Player) send(payload []byte) {
	if p.Ep != nil {
		p.Ep.Send(payload)
	}
}
