package browse

import "math/rand/v2"

// seqRand replays a fixed script of draws. Each value is reduced modulo n;
// once the script runs out it falls back to a seeded PCG so long walks still
// terminate.
type seqRand struct {
	script []int
	pos    int
	tail   *rand.Rand
}

func newSeqRand(script ...int) *seqRand {
	return &seqRand{script: script, tail: rand.New(rand.NewPCG(7, 11))}
}

func (r *seqRand) IntN(n int) int {
	if r.pos < len(r.script) {
		v := r.script[r.pos]
		r.pos++
		return v % n
	}
	return r.tail.IntN(n)
}

func beganSession(t interface{ Fatalf(string, ...any) }, host string) *Session {
	s := NewSession(false)
	if err := s.Begin(Entry{URL: "https://" + host + "/", Scope: host}); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	return s
}
