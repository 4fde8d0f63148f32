// Package main provides a system control plugin for macOS.
// It reads and sets the output volume via AppleScript and the display
// brightness via the brightness command-line tool.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// level is both the set params and the get data. Volume is in [0, 1],
// brightness in [0, 100].
type level struct {
	Level float64 `json:"level"`
}

type getter func() (float64, error)
type setter func(float64) error

var getters = map[string]getter{
	"volume-get":     volumeGet,
	"brightness-get": brightnessGet,
}

var setters = map[string]setter{
	"volume-set":     volumeSet,
	"brightness-set": brightnessSet,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if get, ok := getters[req.Action]; ok {
		v, err := get()
		if err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
		writeSuccessResponse(&level{Level: v})
		return
	}

	set, ok := setters[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var p level
	if err := json.Unmarshal(req.Params, &p); err != nil {
		writeErrorResponse(fmt.Sprintf("invalid params for %s: %v", req.Action, err))
		return
	}
	if err := set(p.Level); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(nil)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

// writeSuccessResponse writes a success response, with data when non-nil.
func writeSuccessResponse(data *level) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("encode data: %v", err))
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns its output.
func runAppleScript(script string) (string, error) {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

func volumeGet() (float64, error) {
	out, err := runAppleScript(`output volume of (get volume settings)`)
	if err != nil {
		return 0, err
	}
	pct, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse volume %q: %w", out, err)
	}
	return float64(pct) / 100, nil
}

func volumeSet(v float64) error {
	pct := int(math.Round(math.Max(0, math.Min(v, 1)) * 100))
	_, err := runAppleScript(fmt.Sprintf(`set volume output volume %d`, pct))
	return err
}

// brightnessGet parses the first "display N: brightness X" line of
// `brightness -l`.
func brightnessGet() (float64, error) {
	out, err := exec.Command("brightness", "-l").Output()
	if err != nil {
		return 0, fmt.Errorf("brightness -l: %w", err)
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		i := strings.Index(line, "brightness ")
		if !strings.HasPrefix(line, "display ") || i < 0 {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(line[i+len("brightness "):]), 64)
		if err != nil {
			return 0, fmt.Errorf("parse brightness %q: %w", line, err)
		}
		return math.Round(f * 100), nil
	}
	return 0, fmt.Errorf("no display reported a brightness")
}

func brightnessSet(p float64) error {
	f := math.Max(0, math.Min(p, 100)) / 100
	out, err := exec.Command("brightness", strconv.FormatFloat(f, 'f', 2, 64)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}
