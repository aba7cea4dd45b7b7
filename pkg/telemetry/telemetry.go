package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"webserver/pkg/logger"
)

type Step struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration_ms"`
}

type Trace struct {
	Name     string            `json:"name"`
	Start    time.Time         `json:"start"`
	Steps    []Step            `json:"steps"`
	TotalMS  float64           `json:"total_ms"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	lastMark time.Time
	tel      *Telemetry
	done     bool
}

// Telemetry writes sampled and slow traces to one jsonl file per trace name
// from a background goroutine.
type Telemetry struct {
	dir              string
	mu               sync.Mutex
	files            map[string]*os.File
	buffers          map[string]*bufio.Writer
	traces           chan *Trace
	stopCh           chan struct{}
	stopOnce         sync.Once
	wg               sync.WaitGroup
	flushInt         time.Duration
	maxFileSizeBytes int64
	bufferSize       int
	dropped          atomic.Int64
}

var (
	tel *Telemetry

	sampleRate    atomic.Value // float64
	slowThreshold atomic.Int64 // nanoseconds
)

func init() {
	sampleRate.Store(float64(0))
}

// SetSampleRate sets the fraction of traces written regardless of duration.
func SetSampleRate(r float64) {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	sampleRate.Store(r)
}

// SetSlowThreshold sets the duration above which a trace is always written
// and logged.
func SetSlowThreshold(d time.Duration) {
	slowThreshold.Store(int64(d))
}

// Init initializes the global telemetry instance.
func Init(dir string, bufferSize, queueCapacity int, flushInterval time.Duration, maxFileSize int64) error {
	t, err := New(dir, bufferSize, queueCapacity, flushInterval, maxFileSize)
	if err != nil {
		return err
	}
	tel = t
	return nil
}

// Track starts a new trace using the global telemetry instance. Without
// Init the trace still records steps but is never written.
func Track(name string) *Trace {
	return tel.Track(name)
}

// Dropped returns how many traces the global instance discarded.
func Dropped() int64 {
	return tel.Dropped()
}

// Close stops the global telemetry instance.
func Close() {
	if tel != nil {
		tel.Close()
		tel = nil
	}
}

// New creates a telemetry writer rooted at dir.
func New(dir string, bufferSize, queueCapacity int, flushInterval time.Duration, maxFileSize int64) (*Telemetry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create telemetry dir: %w", err)
	}
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	t := &Telemetry{
		dir:              dir,
		files:            make(map[string]*os.File),
		buffers:          make(map[string]*bufio.Writer),
		traces:           make(chan *Trace, queueCapacity),
		stopCh:           make(chan struct{}),
		flushInt:         flushInterval,
		maxFileSizeBytes: maxFileSize,
		bufferSize:       bufferSize,
	}
	t.wg.Add(1)
	go t.writerLoop()
	return t, nil
}

// Track starts a trace linked to t. A nil t yields a detached trace.
func (t *Telemetry) Track(name string) *Trace {
	now := time.Now()
	return &Trace{
		Name:     name,
		Start:    now,
		lastMark: now,
		tel:      t,
	}
}

// Dropped returns how many traces were discarded because the queue was full.
func (t *Telemetry) Dropped() int64 {
	if t == nil {
		return 0
	}
	return t.dropped.Load()
}

// Set attaches a key/value to the trace.
func (tr *Trace) Set(key, value string) {
	if tr.Attrs == nil {
		tr.Attrs = make(map[string]string)
	}
	tr.Attrs[key] = value
}

// Mark records the elapsed duration since last mark.
func (tr *Trace) Mark(label string) {
	now := time.Now()
	delta := now.Sub(tr.lastMark).Seconds() * 1000
	tr.Steps = append(tr.Steps, Step{Name: label, Duration: delta})
	tr.lastMark = now
}

// Finish finalizes the trace. Slow traces are logged; slow or sampled traces
// are queued for writing. Safe to call more than once.
func (tr *Trace) Finish() {
	if tr.done {
		return
	}
	tr.done = true
	tr.TotalMS = time.Since(tr.Start).Seconds() * 1000

	var sum float64
	for _, s := range tr.Steps {
		sum += s.Duration
	}
	if remaining := tr.TotalMS - sum; remaining > 0.001 {
		tr.Steps = append(tr.Steps, Step{Name: "unmarked", Duration: remaining})
	}

	slow := false
	if th := slowThreshold.Load(); th > 0 && time.Duration(tr.TotalMS*float64(time.Millisecond)) >= time.Duration(th) {
		slow = true
		logger.Warn("slow_request", "trace", tr.Name, "total_ms", tr.TotalMS, "attrs", tr.Attrs)
	}

	t := tr.tel
	tr.tel = nil
	if t == nil {
		return
	}
	if !slow && !sampled() {
		return
	}
	select {
	case t.traces <- tr:
	default:
		t.dropped.Add(1)
	}
}

func sampled() bool {
	r, _ := sampleRate.Load().(float64)
	return r > 0 && rand.Float64() < r
}

func (t *Telemetry) writerLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.flushInt)
	defer ticker.Stop()

	for {
		select {
		case tr := <-t.traces:
			t.write(tr)

		case <-ticker.C:
			t.mu.Lock()
			for name, b := range t.buffers {
				b.Flush()
				f := t.files[name]
				if fi, err := f.Stat(); err == nil && t.maxFileSizeBytes > 0 && fi.Size() > t.maxFileSizeBytes {
					// truncate and recreate file when > max size
					f.Close()
					newF, err := os.OpenFile(f.Name(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
					if err != nil {
						delete(t.files, name)
						delete(t.buffers, name)
						continue
					}
					t.files[name] = newF
					t.buffers[name] = bufio.NewWriterSize(newF, t.bufferSize)
					logger.Info("telemetry_truncated", "file", name, "max_bytes", t.maxFileSizeBytes)
				}
			}
			t.mu.Unlock()

		case <-t.stopCh:
		drain:
			for {
				select {
				case tr := <-t.traces:
					t.write(tr)
				default:
					break drain
				}
			}
			t.mu.Lock()
			for _, b := range t.buffers {
				b.Flush()
			}
			for _, f := range t.files {
				f.Sync()
				f.Close()
			}
			t.mu.Unlock()
			return
		}
	}
}

func (t *Telemetry) write(tr *Trace) {
	if tr == nil {
		return
	}
	data, err := json.Marshal(tr)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.getBufferFor(tr.Name)
	if b == nil {
		return
	}
	b.Write(data)
	b.WriteByte('\n')
}

func (t *Telemetry) getBufferFor(op string) *bufio.Writer {
	if b, ok := t.buffers[op]; ok {
		return b
	}
	path := filepath.Join(t.dir, fmt.Sprintf("%s.jsonl", op))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Error("telemetry_open_failed", "path", path, "error", err)
		return nil
	}
	b := bufio.NewWriterSize(f, t.bufferSize)
	t.files[op] = f
	t.buffers[op] = b
	return b
}

// Close stops the background writer and flushes what is queued.
func (t *Telemetry) Close() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.wg.Wait()
	})
}
