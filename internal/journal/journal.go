package journal

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"riskgate/internal/callback"
	"riskgate/internal/engine"
	"riskgate/internal/schema"
	"riskgate/internal/window"
	"riskgate/pkg/exception"
)

// Journal appends quotes and trades to per-hour files so rule state can be
// rebuilt by replaying them on restart. Appends are queued and drained by a
// single worker; storage failures are logged and never surface to clients.
type Journal struct {
	cfg Config
	ch  chan []byte
	wg  sync.WaitGroup

	started uint32
	closed  uint32

	// retention holds closed file paths; falling out of the window deletes
	// the file from disk. The newest file always survives.
	retention *window.Queue[string]

	hQuote *callback.Handle[schema.Quote]
	hTrade *callback.Handle[schema.Trade]
}

// New creates a journal and ensures the data directory exists.
func New(cfg Config) (*Journal, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	j := &Journal{
		cfg: cfg,
		ch:  make(chan []byte, cfg.QueueSize),
	}
	j.retention = window.NewQueueOnEvict(cfg.Period, 1, func(_ time.Time, name string) {
		err := os.Remove(name)
		logs.Infof("delete expired journal file %s, err: %v", name, err)
	})
	return j, nil
}

// Attach subscribes the journal to the engine's quote and trade streams.
// Call after Load so replayed events are not re-saved.
func (j *Journal) Attach(eng *engine.Engine) {
	j.hQuote = eng.RegisterQuote(func(q schema.Quote) error {
		j.append(wireRecord(q.Attrs()))
		return nil
	})
	j.hTrade = eng.RegisterTrade(func(t schema.Trade) error {
		j.append(wireRecord(t.Attrs()))
		return nil
	})
}

// Start runs the writer loop in a new goroutine.
func (j *Journal) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&j.started, 0, 1) {
		return exception.ErrJournalAlreadyStarted
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()
	return nil
}

// Close detaches from the engine, stops the writer and flushes buffered
// data.
func (j *Journal) Close() {
	j.hQuote.Close()
	j.hTrade.Close()
	if atomic.CompareAndSwapUint32(&j.closed, 0, 1) {
		close(j.ch)
	}
	j.wg.Wait()
}

// append enqueues one encoded record without blocking. A full queue drops
// the record: at-least-once becomes may-not-once for the affected window,
// with no client-visible effect.
func (j *Journal) append(line []byte) {
	if atomic.LoadUint32(&j.closed) != 0 || atomic.LoadUint32(&j.started) == 0 {
		return
	}
	select {
	case j.ch <- line:
	default:
		logs.Errorf("journal queue full, record dropped")
	}
}

type segment struct {
	file *os.File
	buf  *bufio.Writer
	hour string
	path string
}

func (j *Journal) run(ctx context.Context) {
	var seg *segment

	ticker := time.NewTicker(j.cfg.Tick)
	defer ticker.Stop()

	defer func() {
		j.closeSegment(seg)
	}()

	for {
		select {
		case <-ctx.Done():
			j.drainNonBlocking(&seg)
			return
		case line, ok := <-j.ch:
			if !ok {
				return
			}
			j.writeLine(&seg, line)
		case <-ticker.C:
			if seg != nil {
				if err := seg.buf.Flush(); err != nil {
					logs.Errorf("journal flush failed: %+v", err)
				}
			}
			j.retention.EraseExpired(time.Now())
		}
	}
}

func (j *Journal) drainNonBlocking(seg **segment) {
	for {
		select {
		case line, ok := <-j.ch:
			if !ok {
				return
			}
			j.writeLine(seg, line)
		default:
			return
		}
	}
}

func (j *Journal) writeLine(seg **segment, line []byte) {
	now := time.Now()
	hour := now.Format(hourLayout)
	if *seg == nil || (*seg).hour != hour {
		j.rotate(seg, now, hour)
	}
	if *seg == nil {
		return
	}
	if _, err := (*seg).buf.Write(line); err != nil {
		logs.Errorf("journal append failed: %+v", err)
	}
}

// rotate closes the current file into the retention window and opens the
// file for the new hour.
func (j *Journal) rotate(seg **segment, now time.Time, hour string) {
	if *seg != nil {
		path := (*seg).path
		j.closeSegment(*seg)
		logs.Infof("close journal file %s", path)
		j.retention.Put(now, path)
		*seg = nil
	}

	path := j.filePath(hour)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logs.Errorf("open journal file %s failed: %+v", path, err)
		return
	}
	logs.Infof("open journal file %s", path)
	*seg = &segment{
		file: file,
		buf:  bufio.NewWriter(file),
		hour: hour,
		path: path,
	}
}

func (j *Journal) closeSegment(seg *segment) {
	if seg == nil {
		return
	}
	if err := seg.buf.Flush(); err != nil {
		logs.Errorf("journal flush failed: %+v", err)
	}
	if err := seg.file.Close(); err != nil {
		logs.Errorf("journal close failed: %+v", err)
	}
}

func (j *Journal) filePath(hour string) string {
	return filepath.Join(j.cfg.Dir, j.cfg.FilePrefix+"."+hour+FileSuffix)
}
