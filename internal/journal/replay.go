package journal

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"riskgate/internal/engine"
	"riskgate/internal/message"
	"riskgate/internal/wire"
)

const maxRecordSize = 1 << 20

// wireRecord encodes one journal line.
func wireRecord(attrs message.Attrs) []byte {
	return wire.AppendRecord(nil, attrs)
}

// Load replays every journal file in the data directory through the engine
// in filename order, which is chronological by hour. Responses go nowhere:
// replay rebuilds rule state only. Replayed files enter the retention
// window with their modification time.
func (j *Journal) Load(ctx context.Context, eng *engine.Engine) error {
	entries, err := os.ReadDir(j.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "read journal dir")
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), FileSuffix) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	logs.Infof("load journal files: %d", len(files))

	d := eng.NewDispatcher()
	defer d.Close()

	for _, name := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		path := filepath.Join(j.cfg.Dir, name)
		if err := j.loadFile(path, d); err != nil {
			logs.Errorf("load journal file %s failed: %+v", path, err)
		}
	}
	return nil
}

func (j *Journal) loadFile(path string, d *engine.Dispatcher) error {
	start := time.Now()
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open journal file")
	}
	defer file.Close()

	sink := engine.DiscardTransport{}
	n := 0
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 64*1024), maxRecordSize)
	for sc.Scan() {
		attrs := wire.ParseRecord(sc.Text())
		if len(attrs) < 2 {
			continue
		}
		d.Dispatch(sink, message.New(attrs))
		n++
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "scan journal file")
	}

	logs.Infof("journal file %s loaded: %d records in %s", path, n, time.Since(start))

	if info, err := os.Stat(path); err == nil {
		j.retention.Put(info.ModTime(), path)
	}
	return nil
}
