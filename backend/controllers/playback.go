package controllers

import "sync"

// remotePlayback is the server-side audio handle. The browser does the
// actual playing; this records what it has been told to play.
type remotePlayback struct {
	mu      sync.Mutex
	src     string
	playing bool
	loads   int
}

func (p *remotePlayback) Load(src string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = src
	p.playing = false
	p.loads++
	return nil
}

// Play never fails here; the client reports a refused autoplay itself.
func (p *remotePlayback) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = p.src != ""
	return nil
}

func (p *remotePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *remotePlayback) State() (src string, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src, p.playing
}
