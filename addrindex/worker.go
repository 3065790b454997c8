// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"context"

	"github.com/lightningnetwork/lnd/queue"
	"golang.org/x/sync/errgroup"
)

// eventQueueSize is the buffer size of the event queue's output channel.
// queue.ConcurrentQueue has unbounded capacity: items beyond this buffer
// spill into an overflow list, so a send on ChanIn does not wait for the
// worker to catch up.
const eventQueueSize = 20

// connectItem and disconnectItem distinguish the two shapes of event the
// worker drains off the queue, since queue.ConcurrentQueue carries
// interface{} values.
type connectItem struct{ ev *BlockEvent }
type disconnectItem struct{ ev *DisconnectEvent }

// Start subscribes to the configured ChainNotifier and launches the single
// background worker goroutine that consumes its events in order, per
// spec.md §5's scheduling model. Calling Start more than once is a no-op.
func (idx *Index) Start() error {
	var startErr error
	idx.startOnce.Do(func() {
		idx.events = queue.NewConcurrentQueue(eventQueueSize)
		idx.events.Start()

		if err := idx.cfg.Notifier.Subscribe(
			func(ev *BlockEvent) {
				idx.enqueue(connectItem{ev: ev})
			},
			func(ev *DisconnectEvent) {
				idx.enqueue(disconnectItem{ev: ev})
			},
		); err != nil {
			startErr = indexError(ErrCorruption,
				"failed to subscribe to chain notifier", err)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		idx.eg, _ = errgroup.WithContext(ctx)
		idx.eg.Go(func() error {
			return idx.run(ctx)
		})
		idx.eg.Go(func() error {
			<-idx.quit
			cancel()
			return nil
		})

		idx.started.Store(true)
	})
	return startErr
}

// enqueue accounts for one unit of outstanding work and hands item to the
// worker queue, so BlockUntilSyncedToCurrentChain can tell a genuinely
// drained queue from one that merely looks empty between ChanIn and
// ChanOut. If quit has already been closed, the send is abandoned rather
// than risking a block forever against a stopped queue, and the
// just-added unit of work is immediately accounted for as done.
func (idx *Index) enqueue(item interface{}) {
	idx.mu.Lock()
	idx.inFlight++
	idx.mu.Unlock()

	select {
	case idx.events.ChanIn() <- item:
	case <-idx.quit:
		idx.mu.Lock()
		idx.inFlight--
		if idx.inFlight == 0 {
			idx.cond.Broadcast()
		}
		idx.mu.Unlock()
	}
}

// Stop signals cooperative shutdown. The worker finishes its current block
// (never mid-batch) before exiting; in-flight FindByScript calls are left
// to run to completion, since they hold read snapshots that cannot be
// forcibly aborted without risking file-handle leaks.
func (idx *Index) Stop() error {
	idx.stopOnce.Do(func() {
		close(idx.quit)
		if idx.events != nil {
			idx.events.Stop()
		}
		if idx.eg != nil {
			idx.eg.Wait()
		}
		idx.db.Close()
	})
	return nil
}

// run is the body of the single background worker goroutine. It drains
// events strictly in arrival order; a shutdown signal is honored only
// between blocks, never mid-batch.
func (idx *Index) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case item := <-idx.events.ChanOut():
			err := idx.handleEvent(item)

			idx.mu.Lock()
			idx.inFlight--
			if idx.inFlight == 0 {
				idx.cond.Broadcast()
			}
			idx.mu.Unlock()

			if err != nil {
				log.Errorf("address index worker halting: %v", err)
				return err
			}
		}
	}
}

// handleEvent dispatches one queued item to connectBlock or
// disconnectBlock and updates metrics on success.
func (idx *Index) handleEvent(item interface{}) error {
	switch v := item.(type) {
	case connectItem:
		if err := idx.connectBlock(v.ev); err != nil {
			return err
		}
		idx.metrics.blocksConnected.Inc()
		log.Debugf("address index connected block at height %d", v.ev.Height)

	case disconnectItem:
		if err := idx.disconnectBlock(v.ev); err != nil {
			return err
		}
		idx.metrics.blocksDisconnected.Inc()
		log.Debugf("address index disconnected block at height %d", v.ev.Height)
	}
	return nil
}
