// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ringbuf

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/saferwall/dtrace-go/dtracelog"
)

// Record is one fully copied-out ring record paired with the CPU it came
// from. Ordering is strict within a CPU, unordered across CPUs, matching
// the consumer contract.
type Record struct {
	CPU  int
	Data []byte
}

// Callback receives each record as the poll loop drains it.
type Callback func(Record)

// PebSet ("per-event-buffer set") owns one Ring per CPU and the epoll fd
// that waits on all of their backing file descriptors at once.
type PebSet struct {
	rings   []*Ring
	fds     []int
	epollFd int
	log     *dtracelog.Helper
}

// NewPebSet wraps rings, one per CPU, each paired with the raw fd epoll
// should wait on (the perf event fd backing its mmap region in
// production).
func NewPebSet(rings []*Ring, fds []int, log *dtracelog.Helper) (*PebSet, error) {
	if len(rings) != len(fds) {
		return nil, errMismatchedRingsFds
	}
	if log == nil {
		log = dtracelog.Default()
	}
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	for _, fd := range fds {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			unix.Close(epfd)
			return nil, err
		}
	}
	return &PebSet{rings: rings, fds: fds, epollFd: epfd, log: log}, nil
}

var errMismatchedRingsFds = ringbufError("rings and fds must have equal length")

type ringbufError string

func (e ringbufError) Error() string { return string(e) }

// Poll blocks on epoll until at least one ring has data or ctx is
// cancelled, then drains every ring with pending records (not only the
// ones epoll reported, since level-triggered epoll can coalesce events),
// invoking cb once per fully copied-out record. It returns when ctx is
// cancelled; the stop check happens at the top of each iteration so any
// records already copied out before cancellation are still delivered.
func (p *PebSet) Poll(ctx context.Context, cb Callback) error {
	events := make([]unix.EpollEvent, len(p.fds))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, err := unix.EpollWait(p.epollFd, events, 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		p.drainAll(cb)
	}
}

// drainAll copies out every pending record from every ring in CPU order,
// logging each ring's cumulative drop counter whenever it is nonzero.
func (p *PebSet) drainAll(cb Callback) {
	for i, r := range p.rings {
		if drops := r.Drops(); drops > 0 {
			p.log.Warnf("ring cpu=%d reported %d drops", i, drops)
		}
		for r.Pending() {
			rec, ok := r.Pop()
			if !ok {
				break
			}
			cb(Record{CPU: r.cpu, Data: rec})
		}
	}
}

// Close releases the epoll fd. Ring memory is unmapped by the caller that
// created the mmap regions.
func (p *PebSet) Close() error {
	return unix.Close(p.epollFd)
}
