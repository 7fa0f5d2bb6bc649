//go:build linux

package native

import (
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/gontp/taskpool/api"
)

// epollBackend drives readiness-triggered I-O via Linux epoll: one shared
// epoll instance, a goroutine running EpollWait in a loop, and a per-fd
// pending-operation map (a taskpool submission is always a single pending
// op, not a standing subscription).
type epollBackend struct {
	epfd int

	mu      sync.Mutex
	pending map[uintptr]*pendingIO
	stop    chan struct{}
	wg      sync.WaitGroup
}

type pendingIO struct {
	op     IOOp
	buf    []byte
	oper   *api.IOOperation
	onFire func() func()
	done   func(api.IOCompletion)
}

func newIOBackend() (ioBackend, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeNativeFailure, "epoll_create1", err)
	}
	b := &epollBackend{
		epfd:    epfd,
		pending: make(map[uintptr]*pendingIO),
		stop:    make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop()
	return b, nil
}

func (b *epollBackend) submit(fd uintptr, op IOOp, buf []byte, onFire func() func(), done func(api.IOCompletion)) {
	events := uint32(unix.EPOLLIN)
	if op == IOWrite {
		events = unix.EPOLLOUT
	}
	b.mu.Lock()
	b.pending[fd] = &pendingIO{op: op, buf: buf, oper: &api.IOOperation{Buffer: buf}, onFire: onFire, done: done}
	b.mu.Unlock()

	ev := unix.EpollEvent{Events: events | unix.EPOLLONESHOT, Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		if err == unix.EEXIST {
			_ = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev)
		} else {
			b.mu.Lock()
			p := b.pending[fd]
			delete(b.pending, fd)
			var markDone func()
			if p.onFire != nil {
				markDone = p.onFire()
			}
			b.mu.Unlock()
			go func() {
				done(api.IOCompletion{Operation: p.oper, StatusCode: int(syscall.EIO)})
				if markDone != nil {
					markDone()
				}
			}()
			return
		}
	}
}

func (b *epollBackend) loop() {
	defer b.wg.Done()
	var events [128]unix.EpollEvent
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		n, err := unix.EpollWait(b.epfd, events[:], 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := uintptr(events[i].Fd)
			b.mu.Lock()
			p, ok := b.pending[fd]
			var markDone func()
			if ok {
				delete(b.pending, fd)
				if p.onFire != nil {
					markDone = p.onFire()
				}
			}
			b.mu.Unlock()
			if !ok {
				continue
			}
			_ = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
			completeIO(fd, p)
			if markDone != nil {
				markDone()
			}
		}
	}
}

func completeIO(fd uintptr, p *pendingIO) {
	var n int
	var err error
	if p.op == IORead {
		n, err = unix.Read(int(fd), p.buf)
	} else {
		n, err = unix.Write(int(fd), p.buf)
	}
	completion := api.IOCompletion{Operation: p.oper, BytesTransferred: n}
	if err != nil {
		completion.StatusCode = int(err.(syscall.Errno))
	}
	p.done(completion)
}

// cancel removes fd's pending operation before it becomes ready, deregisters
// it from epoll, and reports whether there was anything to remove. The same
// b.mu critical section that commits loop() to firing (deleting from
// pending and invoking onFire) is what cancel must also acquire, so the two
// can never disagree about whether a given operation is about to complete:
// whichever gets the lock first determines the outcome, and the other sees
// it reflected in b.pending.
func (b *epollBackend) cancel(fd uintptr) bool {
	b.mu.Lock()
	_, ok := b.pending[fd]
	if ok {
		delete(b.pending, fd)
	}
	b.mu.Unlock()
	if ok {
		_ = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	}
	return ok
}

func (b *epollBackend) close() error {
	close(b.stop)
	b.wg.Wait()
	return unix.Close(b.epfd)
}
