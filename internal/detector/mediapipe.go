package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/airmouse/internal/logging"
)

// ErrScriptNotFound is returned when mediapipe_service.py cannot be located.
var ErrScriptNotFound = errors.New("mediapipe_service.py not found")

// maxFrameBytes bounds one encoded frame on the wire.
const maxFrameBytes = 16 << 20

// MediaPipeDetector implements Detector on top of a Python MediaPipe
// subprocess. The process starts on the first Detect and is stopped again
// after Config.IdleTimeout without frames.
type MediaPipeDetector struct {
	config Config
	script string
	python string
	logger zerolog.Logger

	mu   sync.Mutex
	proc *service
	idle *time.Timer
}

// service is one running Python process and its pipes.
type service struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

// NewMediaPipeDetector locates the service script and interpreter. It does
// not start Python.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.ScriptPath
	if script == "" {
		script = firstExisting(searchPaths("scripts/mediapipe_service.py"))
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptNotFound, err)
	}

	python := firstExisting(searchPaths("venv/bin/python"))
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		logger: logging.Component("mediapipe"),
	}, nil
}

// Detect sends frame to the service and returns the hands it reports.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	proc, err := d.start()
	if err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(proc.in, buf.GetBytes()); err != nil {
		d.stop()
		return nil, err
	}
	hands, err := readReply(proc.out)
	if err != nil {
		d.stop()
		return nil, err
	}

	d.armIdle()
	return hands, nil
}

// Close stops the Python process if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) start() (*service, error) {
	if d.proc != nil {
		return d.proc, nil
	}

	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	d.proc = &service{cmd: cmd, in: in, out: bufio.NewReader(out)}
	d.logger.Info().
		Str("script", d.script).
		Str("python", d.python).
		Int("pid", cmd.Process.Pid).
		Msg("mediapipe service started")

	return d.proc, nil
}

// stop closes stdin, which the service treats as shutdown, and reaps it.
func (d *MediaPipeDetector) stop() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}

	proc := d.proc
	d.proc = nil
	proc.in.Close()
	return proc.cmd.Wait()
}

func (d *MediaPipeDetector) armIdle() {
	timeout := d.config.IdleTimeout
	if timeout <= 0 {
		return
	}
	if d.idle != nil {
		d.idle.Reset(timeout)
		return
	}
	d.idle = time.AfterFunc(timeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stop(); err != nil {
			d.logger.Debug().Err(err).Msg("mediapipe service exited")
		}
		d.logger.Info().Dur("idle", timeout).Msg("mediapipe service stopped while idle")
	})
}

// writeFrame sends one frame: a 4-byte big-endian length, then the JPEG.
func writeFrame(w io.Writer, jpeg []byte) error {
	if len(jpeg) == 0 || len(jpeg) > maxFrameBytes {
		return fmt.Errorf("frame size %d out of range", len(jpeg))
	}

	msg := make([]byte, 4+len(jpeg))
	binary.BigEndian.PutUint32(msg, uint32(len(jpeg)))
	copy(msg[4:], jpeg)

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

type reply struct {
	Hands []HandLandmarks `json:"hands"`
	Error string          `json:"error,omitempty"`
}

// readReply reads one JSON line from the service.
func readReply(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	var rep reply
	if err := json.Unmarshal(line, &rep); err != nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}
	if rep.Error != "" {
		return nil, fmt.Errorf("mediapipe: %s", rep.Error)
	}
	return rep.Hands, nil
}

// searchPaths lists where rel may live: the working directory and its
// parents, next to the executable, and under ~/.airmouse.
func searchPaths(rel string) []string {
	paths := []string{rel, filepath.Join("..", rel), filepath.Join("..", "..", rel)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".airmouse", rel))
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
