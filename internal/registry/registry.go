// Package registry is the process-wide directory of active lobbies, keyed
// by their short public code. Like the lobbies it manages, the registry is
// an actor: creation, lookup and removal are serialized through one inbox,
// so concurrent connection handlers can never mint duplicate codes or
// observe a half-created lobby.
package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/wordduel/wordduel-backend/internal/lobby"
	"github.com/wordduel/wordduel-backend/internal/words"
)

// ErrCapacityExceeded is returned when code generation keeps colliding,
// which is practically unreachable at 36^6 codes.
var ErrCapacityExceeded = errors.New("no free lobby codes")

const (
	codeLength   = 6
	codeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts = 64
)

type msg interface{ isRegistryMsg() }

type createMsg struct {
	queue     words.Queue
	timeLimit int
	reply     chan createResult
}

type createResult struct {
	code string
	lb   *lobby.Lobby
	err  error
}

type lookupMsg struct {
	code  string
	reply chan *lobby.Lobby
}

type removeMsg struct{ code string }

type shutdownMsg struct{}

func (createMsg) isRegistryMsg()   {}
func (lookupMsg) isRegistryMsg()   {}
func (removeMsg) isRegistryMsg()   {}
func (shutdownMsg) isRegistryMsg() {}

type Registry struct {
	inbox   chan msg
	lobbies map[string]*lobby.Lobby
	opts    lobby.Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, opts lobby.Options, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:   make(chan msg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

// Create inserts a new waiting lobby and returns its code.
func (r *Registry) Create(queue words.Queue, timeLimit int) (string, *lobby.Lobby, error) {
	reply := make(chan createResult, 1)
	if !r.push(createMsg{queue: queue, timeLimit: timeLimit, reply: reply}) {
		return "", nil, ErrCapacityExceeded
	}
	select {
	case res := <-reply:
		return res.code, res.lb, res.err
	case <-r.ctx.Done():
		return "", nil, ErrCapacityExceeded
	}
}

// Lookup returns the live lobby for a code, or nil.
func (r *Registry) Lookup(code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	if !r.push(lookupMsg{code: code, reply: reply}) {
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-r.ctx.Done():
		return nil
	}
}

// ScheduleRemoval drops the code after the given delay (immediately for
// zero). Idempotent: removing an absent code is a no-op, and a removed
// lobby is unreachable to new lookups even if in-flight handlers still
// hold a pointer.
func (r *Registry) ScheduleRemoval(code string, after time.Duration) {
	if after <= 0 {
		r.push(removeMsg{code: code})
		return
	}
	time.AfterFunc(after, func() {
		r.push(removeMsg{code: code})
	})
}

// Shutdown closes every lobby and stops the registry.
func (r *Registry) Shutdown() { r.push(shutdownMsg{}) }

func (r *Registry) push(m msg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case createMsg:
				msg.reply <- r.create(msg)

			case lookupMsg:
				msg.reply <- r.lobbies[msg.code] // may be nil

			case removeMsg:
				if lb := r.lobbies[msg.code]; lb != nil {
					delete(r.lobbies, msg.code)
					lb.Close()
					r.log.Info("lobby removed", zap.String("code", msg.code))
				}

			case shutdownMsg:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Registry) create(m createMsg) createResult {
	code, err := r.freeCode()
	if err != nil {
		return createResult{err: err}
	}
	lb := lobby.New(r.ctx, code, m.queue, m.timeLimit, r.opts, r.log.Named("lobby"), r.ScheduleRemoval)
	r.lobbies[code] = lb
	r.log.Info("lobby created", zap.String("code", code), zap.Int("timeLimit", m.timeLimit))
	return createResult{code: code, lb: lb}
}

// freeCode retries generation until the code is unique among live lobbies.
func (r *Registry) freeCode() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.lobbies[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCapacityExceeded
}

func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

func (r *Registry) shutdown() {
	for code, lb := range r.lobbies {
		lb.Close()
		delete(r.lobbies, code)
	}
	r.cancel()
}
