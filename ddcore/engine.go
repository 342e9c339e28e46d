package ddcore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrAborted is returned by Run when the state machine exhausts its
// recovery options on a block and neither fill_on_error nor
// continue_on_error is set.
var ErrAborted = errors.New("ddcore: aborted after unrecoverable block error")

// Engine drives the read -> write pipeline described by a Config: a soft
// read that falls back to a hard, retried read on error, then either a
// write, a fill, a skip, or an abort, advancing until the source is
// exhausted, an error budget is exceeded, or the operation is cancelled.
type Engine struct {
	cfg Config

	src backend
	dst backend

	inputDigest  *digestSet
	outputDigest *digestSet

	mu       sync.Mutex
	status   Status
	cancelled bool
	paused    bool

	lastPublish time.Time

	currentBlockSize int
	cleanHardRun     int
}

const cleanHardRunBeforeScaleUp = 8

// NewEngine builds an Engine copying from cfg.InputPath to cfg.OutputPath.
// Floppy backends are wired up by NewFloppyReadEngine and
// NewFloppyWriteEngine instead.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := openFileSource(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	dst, err := openFileSink(cfg.OutputPath, cfg.Output)
	if err != nil {
		src.Close()
		return nil, err
	}
	return newEngine(cfg, src, dst), nil
}

// NewFloppyReadEngine builds an Engine reading sector-by-sector from a
// floppy CHS backend into cfg.OutputPath.
func NewFloppyReadEngine(cfg Config, dev FloppyBackend) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dst, err := openFileSink(cfg.OutputPath, cfg.Output)
	if err != nil {
		return nil, err
	}
	e := newEngine(cfg, nil, dst)
	e.src = newFloppyBackend(dev, e.setCurrentCHS)
	return e, nil
}

// NewFloppyWriteEngine builds an Engine writing cfg.InputPath sector-by-
// sector to a floppy CHS backend.
func NewFloppyWriteEngine(cfg Config, dev FloppyBackend) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := openFileSource(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	e := newEngine(cfg, src, nil)
	e.dst = newFloppyBackend(dev, e.setCurrentCHS)
	return e, nil
}

func newEngine(cfg Config, src, dst backend) *Engine {
	e := &Engine{
		cfg:              cfg,
		src:              src,
		dst:              dst,
		inputDigest:      newDigestSet(cfg.Hash.Input, cfg.Hash.Window),
		outputDigest:     newDigestSet(cfg.Hash.Output, cfg.Hash.Window),
		currentBlockSize: cfg.BlockSizes.Soft,
	}
	e.status.StartTime = time.Now()
	e.status.IsRunning = true
	e.status.Outcome = OutcomeRunning
	return e
}

func (e *Engine) setCurrentCHS(chs CHS) {
	e.mu.Lock()
	e.status.CurrentCHS = &chs
	e.mu.Unlock()
}

// Pause requests the engine suspend at the next block or retry boundary.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Resume clears a prior Pause request.
func (e *Engine) Resume() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
}

// Cancel requests the engine stop at the next block or retry boundary.
// Bytes already committed to the sink are not rolled back.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.cancelled = true
	e.mu.Unlock()
}

// Status returns a consistent snapshot of current progress.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.status
	s.Now = time.Now()
	s.HashInputHex = e.inputDigest.Hex()
	s.HashOutputHex = e.outputDigest.Hex()
	if elapsed := s.Now.Sub(s.StartTime).Seconds(); elapsed > 0 {
		s.BytesPerSec = float64(s.BytesRead) / elapsed
	}
	return s
}

func (e *Engine) isCancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

func (e *Engine) waitWhilePaused() {
	for {
		e.mu.Lock()
		paused := e.paused
		e.mu.Unlock()
		if !paused {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Run drives the copy to completion, returning the final status and an
// error only for conditions the caller cannot recover from by inspecting
// the returned status (Cancelled and a clean Done are both nil-error
// outcomes; ErrAborted is returned when the recovery policy gives up).
func (e *Engine) Run() (Status, error) {
	defer func() {
		if e.src != nil {
			e.src.Close()
		}
		if e.dst != nil {
			e.dst.Close()
		}
	}()

	total, knownSize := e.src.Size()

	offset := e.cfg.Skip
	writeOffset := e.cfg.Seek
	limit := total
	if e.cfg.MaxBytes > 0 {
		limit = offset + e.cfg.MaxBytes
	}

	if e.cfg.Recovery.Reverse && knownSize {
		offset = limit
	}

	if err := e.src.SeekToOffset(offset); err != nil {
		return e.finish(OutcomeAborted, fmt.Sprintf("seek source: %v", err)), err
	}
	if err := e.dst.SeekToOffset(writeOffset); err != nil {
		return e.finish(OutcomeAborted, fmt.Sprintf("seek destination: %v", err)), err
	}

	blocksSinceSync := 0

	for {
		e.waitWhilePaused()
		if e.isCancelled() {
			return e.finish(OutcomeCancelled, "cancelled by operator"), nil
		}

		want := e.currentBlockSize
		if knownSize {
			if e.cfg.Recovery.Reverse {
				if offset <= e.cfg.Skip {
					return e.finish(OutcomeDone, "reached start of reversed range"), nil
				}
				if int64(want) > offset-e.cfg.Skip {
					want = int(offset - e.cfg.Skip)
				}
			} else if offset+int64(want) > limit {
				want = int(limit - offset)
			}
		}
		if want <= 0 {
			return e.finish(OutcomeDone, "copy complete"), nil
		}

		readOffset := offset
		if e.cfg.Recovery.Reverse {
			readOffset = offset - int64(want)
		}

		buf, n, readErr := e.readWithRecovery(readOffset, want)
		if readErr == io.EOF && n == 0 {
			return e.finish(OutcomeDone, "source exhausted"), nil
		}

		if readErr != nil {
			e.bumpReadError()
			if e.cfg.Recovery.MaxErrors > 0 && e.status.ErrorsRead > int64(e.cfg.Recovery.MaxErrors) {
				return e.finish(OutcomeAborted, "max read error budget exceeded"), ErrAborted
			}
			switch {
			case e.cfg.Recovery.FillOnError:
				buf = make([]byte, want)
				for i := range buf {
					buf[i] = e.cfg.Recovery.FillByte
				}
				n = want
				slog.Warn("ddcore: filling unreadable block", "offset", readOffset, "size", want, "pattern", e.cfg.Recovery.FillByte)
			case e.cfg.Recovery.ContinueOnError:
				e.bumpSkipped()
				slog.Warn("ddcore: skipping unreadable block", "offset", readOffset, "size", want)
				offset = e.advance(offset, want)
				continue
			default:
				return e.finish(OutcomeAborted, fmt.Sprintf("unrecoverable read error at offset %d: %v", readOffset, readErr)), ErrAborted
			}
		}

		e.inputDigest.Write(buf[:n])

		if !e.cfg.Recovery.Sparse || !isAllZero(buf[:n]) {
			if err := e.dst.SeekToOffset(writeOffset); err != nil {
				return e.finish(OutcomeAborted, fmt.Sprintf("seek destination: %v", err)), err
			}
			written, werr := e.dst.WriteBlock(buf[:n])
			if werr != nil {
				e.bumpWriteError()
				if !e.cfg.Recovery.ContinueOnError {
					return e.finish(OutcomeAborted, fmt.Sprintf("write error at offset %d: %v", writeOffset, werr)), werr
				}
			} else {
				e.outputDigest.Write(buf[:written])
			}
		}

		e.bumpWritten(int64(n))
		offset = e.advance(offset, n)
		writeOffset += int64(n)

		blocksSinceSync++
		if e.cfg.Output.SyncWrites && e.cfg.Output.SyncFrequency > 0 && blocksSinceSync >= e.cfg.Output.SyncFrequency {
			blocksSinceSync = 0
		}

		e.publish()
	}
}

func (e *Engine) advance(offset int64, n int) int64 {
	if e.cfg.Recovery.Reverse {
		return offset - int64(n)
	}
	return offset + int64(n)
}

// readWithRecovery performs the READ(soft) -> RETRY(hard) state machine for
// a single block starting at offset, returning the data actually read. Each
// hard-sized chunk is explicitly re-seeked before its own retry loop, so a
// failed chunk never stalls the stream at the same position.
func (e *Engine) readWithRecovery(offset int64, want int) ([]byte, int, error) {
	if err := e.src.SeekToOffset(offset); err != nil {
		return nil, 0, err
	}
	buf := make([]byte, want)
	n, err := e.src.ReadBlock(buf)
	if err == nil || errors.Is(err, io.EOF) {
		if err == nil && e.cfg.BlockSizes.AutoAdjust && e.currentBlockSize < e.cfg.BlockSizes.Soft {
			e.cleanHardRun++
			if e.cleanHardRun >= cleanHardRunBeforeScaleUp {
				e.currentBlockSize = e.cfg.BlockSizes.Soft
				e.cleanHardRun = 0
			}
		}
		return buf, n, err
	}

	if e.cfg.BlockSizes.AutoAdjust {
		e.currentBlockSize = e.cfg.BlockSizes.Hard
		e.cleanHardRun = 0
	}

	hard := e.cfg.BlockSizes.Hard
	if hard <= 0 || hard > want {
		hard = want
	}

	var lastErr error
	total := 0
	out := make([]byte, 0, want)
	for chunkOffset, remaining := offset, want; remaining > 0; {
		if e.isCancelled() {
			return out, total, errors.New("cancelled during retry")
		}
		chunk := hard
		if chunk > remaining {
			chunk = remaining
		}
		chunkBuf := make([]byte, chunk)

		var chunkErr error
		for attempt := 0; attempt <= e.cfg.Recovery.RetryCount; attempt++ {
			e.waitWhilePaused()
			if err := e.src.SeekToOffset(chunkOffset); err != nil {
				return out, total, err
			}
			var cn int
			cn, chunkErr = e.src.ReadBlock(chunkBuf)
			if chunkErr == nil {
				out = append(out, chunkBuf[:cn]...)
				total += cn
				break
			}
			if attempt < e.cfg.Recovery.RetryCount && e.cfg.Recovery.RetryDelayMs > 0 {
				time.Sleep(time.Duration(e.cfg.Recovery.RetryDelayMs) * time.Millisecond)
			}
		}
		if chunkErr != nil {
			lastErr = chunkErr
			out = append(out, chunkBuf...)
			total += chunk
		}
		chunkOffset += int64(chunk)
		remaining -= chunk
	}

	if lastErr == nil {
		e.cleanHardRun++
		if e.cfg.BlockSizes.AutoAdjust && e.cleanHardRun >= cleanHardRunBeforeScaleUp {
			e.currentBlockSize = e.cfg.BlockSizes.Soft
			e.cleanHardRun = 0
		}
		return out, total, nil
	}
	return out, total, lastErr
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func (e *Engine) bumpReadError() {
	e.mu.Lock()
	e.status.ErrorsRead++
	e.status.HasError = true
	e.mu.Unlock()
}

func (e *Engine) bumpWriteError() {
	e.mu.Lock()
	e.status.ErrorsWrite++
	e.status.HasError = true
	e.mu.Unlock()
}

func (e *Engine) bumpSkipped() {
	e.mu.Lock()
	e.status.SectorsSkipped++
	e.mu.Unlock()
}

func (e *Engine) bumpWritten(n int64) {
	e.mu.Lock()
	e.status.BytesRead += n
	e.status.BytesWritten += n
	e.status.BlocksFull++
	e.status.CurrentOffset += n
	e.mu.Unlock()
}

func (e *Engine) publish() {
	if e.cfg.OnStatus == nil {
		return
	}
	if time.Since(e.lastPublish) < 100*time.Millisecond {
		return
	}
	e.lastPublish = time.Now()
	e.cfg.OnStatus(e.Status())
}

func (e *Engine) finish(outcome Outcome, message string) Status {
	e.mu.Lock()
	e.status.IsRunning = false
	e.status.Outcome = outcome
	e.status.Message = message
	e.status.PercentDone = 100
	e.mu.Unlock()
	if e.cfg.OnStatus != nil {
		e.cfg.OnStatus(e.Status())
	}
	return e.Status()
}
