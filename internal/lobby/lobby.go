// Package lobby implements one game session as an actor: a goroutine that
// drains a single inbox of tagged messages. Client commands, clock ticks
// and grace-timer expiries all flow through the same channel, so no lobby
// state is ever touched from two goroutines at once.
package lobby

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wordduel/wordduel-backend/internal/clock"
	"github.com/wordduel/wordduel-backend/internal/protocol"
	"github.com/wordduel/wordduel-backend/internal/words"
)

type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

const maxPlayers = 2

// Options tunes the lobby's timing. Zero values take the production
// defaults; tests shrink them so nothing sleeps for real seconds.
type Options struct {
	TickInterval    time.Duration
	DisconnectGrace time.Duration
	EmptyGrace      time.Duration
	RemoveDelay     time.Duration
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.DisconnectGrace <= 0 {
		o.DisconnectGrace = 5 * time.Second
	}
	if o.EmptyGrace <= 0 {
		o.EmptyGrace = 30 * time.Second
	}
	if o.RemoveDelay <= 0 {
		o.RemoveDelay = 10 * time.Second
	}
	return o
}

// View mirrors internal state without data races, for probes and tests.
type View struct {
	Code          string
	State         State
	Players       []PlayerView
	HostID        string
	TimeLimit     int
	TimeRemaining int
	QueueLen      int
}

type PlayerView struct {
	ID        string
	Name      string
	Score     int
	Cursor    int
	Host      bool
	Connected bool
}

type Lobby struct {
	code      string
	inbox     chan Msg
	players   map[string]*Player
	hostID    string
	queue     words.Queue // as supplied at creation
	deck      words.Queue // shuffled once at game start
	state     State
	timeLimit int
	timeLeft  int

	clk      *clock.Clock
	clockGen int
	emptyGen int
	joinSeq  int

	opts Options
	log  *zap.Logger

	// onRemove asks the registry to drop this lobby after the given delay.
	onRemove func(code string, after time.Duration)

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, code string, queue words.Queue, timeLimit int, opts Options, log *zap.Logger, onRemove func(code string, after time.Duration)) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		code:      code,
		inbox:     make(chan Msg, 64),
		players:   make(map[string]*Player),
		queue:     queue,
		state:     StateWaiting,
		timeLimit: timeLimit,
		timeLeft:  timeLimit,
		opts:      opts.withDefaults(),
		log:       log,
		onRemove:  onRemove,
		ctx:       ctx,
		cancel:    cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Join binds (or rebinds) an endpoint to the player with the given display
// name and returns the player id the connection should act as.
func (l *Lobby) Join(name string, ep Endpoint) (string, error) {
	reply := make(chan JoinResult, 1)
	if !l.push(Join{Name: name, Ep: ep, Reply: reply}) {
		return "", ErrLobbyNotFound
	}
	select {
	case res := <-reply:
		return res.PlayerID, res.Err
	case <-l.ctx.Done():
		return "", ErrLobbyNotFound
	}
}

func (l *Lobby) Start(playerID string) { l.push(Start{PlayerID: playerID}) }

func (l *Lobby) Answer(playerID, text string) {
	l.push(Answer{PlayerID: playerID, Text: text})
}

func (l *Lobby) Disconnect(playerID, endpointID string) {
	l.push(Disconnect{PlayerID: playerID, EndpointID: endpointID})
}

// View blocks until the loop reflects its state; returns the zero View if
// the lobby is already gone.
func (l *Lobby) View() View {
	reply := make(chan View, 1)
	if !l.push(GetState{Reply: reply}) {
		return View{}
	}
	select {
	case v := <-reply:
		return v
	case <-l.ctx.Done():
		return View{}
	}
}

// Close retires the lobby. Idempotent.
func (l *Lobby) Close() { l.push(Shutdown{}) }

func (l *Lobby) push(m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)
			case Start:
				l.handleStart(msg)
			case Answer:
				l.handleAnswer(msg)
			case Disconnect:
				l.handleDisconnect(msg)
			case tick:
				l.handleTick(msg)
			case reapPlayer:
				l.handleReap(msg)
			case expireEmpty:
				l.handleExpireEmpty(msg)
			case GetState:
				msg.Reply <- l.view()
			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handleJoin(m Join) {
	if l.state == StateFinished {
		m.Reply <- JoinResult{Err: ErrGameAlreadyRunning}
		return
	}

	// Any admission cancels a pending empty-lobby purge.
	l.emptyGen++

	// A matching display name is a reconnection: the identity (id, score,
	// cursor, host designation) transfers to the new endpoint even if the
	// stale connection has not closed yet.
	if p := l.playerByName(m.Name); p != nil {
		p.Ep = m.Ep
		m.Reply <- JoinResult{PlayerID: p.ID}
		l.log.Info("player reconnected", zap.String("code", l.code), zap.String("name", p.Name))
		l.broadcast(protocol.PlayerJoined(l.roster(), p.Name))
		if l.state == StatePlaying {
			l.resync(p)
		}
		return
	}

	// When a third name hits a full, running lobby both preconditions
	// apply; a non-waiting lobby answers "game already running" before
	// fullness is considered.
	if l.state != StateWaiting {
		m.Reply <- JoinResult{Err: ErrGameAlreadyRunning}
		return
	}
	if len(l.players) >= maxPlayers {
		m.Reply <- JoinResult{Err: ErrLobbyFull}
		return
	}

	p := &Player{
		ID:      uuid.NewString(),
		Name:    m.Name,
		Ep:      m.Ep,
		joinSeq: l.joinSeq,
	}
	l.joinSeq++
	l.players[p.ID] = p
	if l.hostID == "" {
		l.hostID = p.ID
	}

	m.Reply <- JoinResult{PlayerID: p.ID}
	l.log.Info("player joined", zap.String("code", l.code), zap.String("name", p.Name), zap.Bool("host", p.ID == l.hostID))
	l.broadcast(protocol.PlayerJoined(l.roster(), p.Name))
}

// resync replays the in-game state a reconnecting player needs to render:
// the remaining countdown and their current word (or their final state if
// they already exhausted the queue).
func (l *Lobby) resync(p *Player) {
	p.send(protocol.GameStarted(l.timeLeft))
	if pair, ok := l.deck.At(p.Cursor); ok {
		p.send(protocol.NextWord(pair.Question))
	} else {
		p.send(protocol.Finished(p.Score))
	}
}

func (l *Lobby) handleStart(m Start) {
	p := l.players[m.PlayerID]
	if p == nil {
		return
	}
	if l.state != StateWaiting {
		p.send(protocol.Error(ErrGameAlreadyRunning.Error()))
		return
	}
	if m.PlayerID != l.hostID {
		p.send(protocol.Error(ErrNotHost.Error()))
		return
	}
	if len(l.players) < maxPlayers || l.queue.Len() == 0 {
		p.send(protocol.Error(ErrNotReady.Error()))
		return
	}

	l.deck = l.queue.Shuffled()
	for _, pl := range l.players {
		pl.Score = 0
		pl.Cursor = 0
	}
	l.timeLeft = l.timeLimit
	l.state = StatePlaying

	l.clockGen++
	gen := l.clockGen
	l.clk = clock.Start(l.opts.TickInterval, func() {
		l.push(tick{gen: gen})
	})

	l.log.Info("game started", zap.String("code", l.code), zap.Int("timeLimit", l.timeLimit), zap.Int("words", l.deck.Len()))
	l.broadcast(protocol.GameStarted(l.timeLimit))
	first, _ := l.deck.At(0)
	for _, pl := range l.players {
		pl.send(protocol.NextWord(first.Question))
	}
}

func (l *Lobby) handleAnswer(m Answer) {
	p := l.players[m.PlayerID]
	if p == nil {
		return
	}
	if l.state != StatePlaying {
		p.send(protocol.Error("no game in progress"))
		return
	}

	pair, ok := l.deck.At(p.Cursor)
	if !ok {
		// Player already ran out of words; opponent is still racing.
		return
	}

	// Correctness and cursor advance are one atomic step.
	if words.Match(m.Text, pair.Answer) {
		p.Score++
		p.send(protocol.Correct(p.Score))
	} else {
		p.send(protocol.Incorrect(p.Score, pair.Answer))
	}
	p.Cursor++

	if next, ok := l.deck.At(p.Cursor); ok {
		p.send(protocol.NextWord(next.Question))
	} else {
		p.send(protocol.Finished(p.Score))
	}

	if l.allDone() {
		l.finish()
	}
}

func (l *Lobby) allDone() bool {
	if len(l.players) == 0 {
		return false
	}
	for _, p := range l.players {
		if p.Cursor < l.deck.Len() {
			return false
		}
	}
	return true
}

func (l *Lobby) handleTick(m tick) {
	if m.gen != l.clockGen || l.state != StatePlaying {
		return
	}
	if l.timeLeft > 0 {
		l.timeLeft--
	}
	l.broadcast(protocol.Timer(l.timeLeft))
	if l.timeLeft <= 0 {
		l.finish()
	}
}

func (l *Lobby) handleDisconnect(m Disconnect) {
	p := l.players[m.PlayerID]
	if p == nil || p.Ep == nil || p.Ep.ID() != m.EndpointID {
		return
	}
	endpointID := m.EndpointID
	playerID := m.PlayerID
	time.AfterFunc(l.opts.DisconnectGrace, func() {
		l.push(reapPlayer{playerID: playerID, endpointID: endpointID})
	})
}

func (l *Lobby) handleReap(m reapPlayer) {
	p := l.players[m.playerID]
	if p == nil {
		return
	}
	// A reconnection swapped in a fresh endpoint; the identity was claimed.
	if p.Ep != nil && p.Ep.ID() != m.endpointID {
		return
	}

	delete(l.players, m.playerID)
	l.log.Info("player removed", zap.String("code", l.code), zap.String("name", p.Name))
	l.broadcast(protocol.PlayerLeft(p.Name, l.roster()))

	if m.playerID == l.hostID {
		l.hostID = ""
		if next := l.earliestPlayer(); next != nil {
			l.hostID = next.ID
			l.broadcast(protocol.NewHost(next.Name))
			l.log.Info("host promoted", zap.String("code", l.code), zap.String("name", next.Name))
		}
	}

	if l.state == StatePlaying && len(l.players) < maxPlayers {
		l.finish()
		return
	}

	if len(l.players) == 0 && l.state == StateWaiting {
		l.emptyGen++
		gen := l.emptyGen
		time.AfterFunc(l.opts.EmptyGrace, func() {
			l.push(expireEmpty{gen: gen})
		})
	}
}

func (l *Lobby) handleExpireEmpty(m expireEmpty) {
	if m.gen != l.emptyGen || len(l.players) != 0 || l.state != StateWaiting {
		return
	}
	l.log.Info("empty lobby expired", zap.String("code", l.code))
	if l.onRemove != nil {
		l.onRemove(l.code, 0)
	}
}

// finish commits the one transition into Finished: the clock is retired
// synchronously so no late tick can reopen the game, the scoreboard is
// broadcast, and the registry is asked to drop the code after the display
// delay.
func (l *Lobby) finish() {
	if l.state == StateFinished {
		return
	}
	l.state = StateFinished
	l.clockGen++
	if l.clk != nil {
		l.clk.Stop()
		l.clk = nil
	}

	results := make([]protocol.Result, 0, len(l.players))
	for _, p := range l.sortedPlayers() {
		results = append(results, protocol.Result{Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	maxScore := 0
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	winners := make([]string, 0, len(results))
	for _, r := range results {
		if r.Score == maxScore {
			winners = append(winners, r.Name)
		}
	}

	l.log.Info("game over", zap.String("code", l.code), zap.Int("maxScore", maxScore), zap.Strings("winners", winners))
	l.broadcast(protocol.GameOver(winners, maxScore, results))

	if l.onRemove != nil {
		l.onRemove(l.code, l.opts.RemoveDelay)
	}
}

func (l *Lobby) shutdown() {
	if l.clk != nil {
		l.clk.Stop()
		l.clk = nil
	}
	l.cancel()
}

// broadcast fans out one committed snapshot payload; unreachable endpoints
// drop it without affecting the others.
func (l *Lobby) broadcast(payload []byte) {
	for _, p := range l.players {
		p.send(payload)
	}
}

func (l *Lobby) playerByName(name string) *Player {
	for _, p := range l.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (l *Lobby) earliestPlayer() *Player {
	var best *Player
	for _, p := range l.players {
		if best == nil || p.joinSeq < best.joinSeq {
			best = p
		}
	}
	return best
}

func (l *Lobby) sortedPlayers() []*Player {
	ps := make([]*Player, 0, len(l.players))
	for _, p := range l.players {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].joinSeq < ps[j].joinSeq })
	return ps
}

func (l *Lobby) roster() []protocol.PlayerInfo {
	ps := l.sortedPlayers()
	infos := make([]protocol.PlayerInfo, 0, len(ps))
	for _, p := range ps {
		infos = append(infos, protocol.PlayerInfo{ID: p.ID, Name: p.Name, IsHost: p.ID == l.hostID})
	}
	return infos
}

func (l *Lobby) view() View {
	v := View{
		Code:          l.code,
		State:         l.state,
		HostID:        l.hostID,
		TimeLimit:     l.timeLimit,
		TimeRemaining: l.timeLeft,
		QueueLen:      l.queue.Len(),
	}
	for _, p := range l.sortedPlayers() {
		v.Players = append(v.Players, PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Score:     p.Score,
			Cursor:    p.Cursor,
			Host:      p.ID == l.hostID,
			Connected: p.Ep != nil,
		})
	}
	return v
}
