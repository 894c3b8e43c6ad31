// Package provider manages the set of running telnet links. Each link is
// one connection manager task: Start launches it, Stop aborts it, and
// Shutdown tears everything down. Aborting is immediate; partial data in
// flight is discarded, matching the contract of the connection manager.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/64BitAsura/teltap/internal/config"
	"github.com/64BitAsura/teltap/internal/errors"
	"github.com/64BitAsura/teltap/internal/io/tlog"
	"github.com/64BitAsura/teltap/internal/telnet"
	"github.com/64BitAsura/teltap/internal/transport"
)

// link is the state kept for one running telnet connection task.
type link struct {
	config config.LinkConfig
	cancel context.CancelFunc
}

// Provider owns all running telnet clients, keyed by link name. All
// methods are safe for concurrent use.
type Provider struct {
	mu    sync.Mutex
	links map[string]*link
	wg    sync.WaitGroup
}

// New creates an empty provider.
func New() *Provider {
	return &Provider{links: make(map[string]*link)}
}

// Start launches the connection manager for a link in its own goroutine.
// The task runs until Stop/Shutdown cancels it or the link's reconnect
// budget is exhausted. Starting a name twice is an error.
func (p *Provider) Start(ctx context.Context, cfg config.LinkConfig, handler telnet.Handler) error {
	name := cfg.Name
	if name == "" {
		name = cfg.Address()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.links[name]; exists {
		return errors.Wrapf(errors.ErrLinkExists, "%s", name)
	}

	var dialer transport.Dialer = &transport.TCPDialer{}
	if cfg.Tunnel != nil {
		dialer = transport.NewSSHDialer(*cfg.Tunnel)
	}

	linkCtx, cancel := context.WithCancel(ctx)
	p.links[name] = &link{config: cfg, cancel: cancel}

	client := telnet.NewClient(cfg, dialer)
	tlog.Client.Info("Starting telnet link", name, cfg.Address())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer dialer.Close()
		err := client.Run(linkCtx, handler)
		if err != nil && !errors.Is(err, context.Canceled) {
			tlog.Client.Error("Telnet link terminated", name, err)
		}
		p.remove(name)
	}()

	return nil
}

// Stop aborts the named link's task. The task's socket is closed and no
// further messages are delivered.
func (p *Provider) Stop(name string) error {
	p.mu.Lock()
	l, ok := p.links[name]
	p.mu.Unlock()

	if !ok {
		return errors.Wrapf(errors.ErrNoSuchLink, "%s", name)
	}
	tlog.Client.Info("Stopping telnet link", name)
	l.cancel()
	return nil
}

// Shutdown aborts all links and waits for their tasks to finish.
func (p *Provider) Shutdown() {
	p.mu.Lock()
	for name, l := range p.links {
		tlog.Client.Info("Stopping telnet link", name)
		l.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Links returns the names of all running links, sorted.
func (p *Provider) Links() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.links))
	for name := range p.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Provider) remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.links[name]; ok {
		l.cancel()
		delete(p.links, name)
	}
}
