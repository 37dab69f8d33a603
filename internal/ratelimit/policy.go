package ratelimit

import "time"

// Policy binds a named limit to a shared Limiter. Keys from different
// policies never collide because each is prefixed with the policy name.
type Policy struct {
	Limiter *Limiter
	Name    string
	Max     int
	Window  time.Duration
	Now     func() time.Time
}

func (p *Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Policy) Admit(identifier string) Decision {
	return p.Limiter.Admit(p.Name+":"+identifier, p.Max, p.Window, p.now())
}

// Allow lets a Policy serve as an echo rate limiter store.
func (p *Policy) Allow(identifier string) (bool, error) {
	return p.Admit(identifier) == Allowed, nil
}
