/*
 * kos - Boot configuration file parser
 *
 * Copyright 2026, kos contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package bootconfig reads the kernel's optional boot configuration
// file: one "key value" directive per line, '#' starts a comment, and
// blank lines are ignored. It replaces the original S370 config
// parser's model-registration machinery (there is exactly one "model"
// here, the kernel itself) with a flat set of known directives, but
// keeps the same line-scanner shape: skip space, collect a bare word,
// skip space, collect the rest of the line as the value.
package bootconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config holds every boot-time setting §4.11's boot sequence reads
// before it builds the kernel's subsystems.
type Config struct {
	ImagePath string // read-only filesystem image to mount.
	LogPath   string // kernel log file; "" disables file logging.
	LogLevel  string // one of debug, info, warn, error.
	Debug     bool   // also mirror every log line to stderr.
	RTCHz     int    // RTC base virtualized frequency override, 0 = default.
}

// Default returns the configuration the kernel boots with when no
// file or flags override it.
func Default() Config {
	return Config{
		ImagePath: "kos.img",
		LogLevel:  "info",
		RTCHz:     0,
	}
}

var errBadDirective = errors.New("bootconfig: malformed directive")

// Load reads path and applies its directives on top of cfg, returning
// the merged result. Unknown directives are rejected so a typo in a
// boot config is never silently ignored.
func Load(path string, cfg Config) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cfg, err
		}
		if applyErr := applyLine(&cfg, raw); applyErr != nil {
			return cfg, fmt.Errorf("bootconfig: line %d: %w", lineNumber, applyErr)
		}
		if err != nil && errors.Is(err, io.EOF) {
			break
		}
	}
	return cfg, nil
}

func applyLine(cfg *Config, raw string) error {
	line := raw
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	key, value, found := strings.Cut(line, " ")
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if !found && key != "" {
		return fmt.Errorf("%w: directive %q has no value", errBadDirective, key)
	}

	switch key {
	case "image":
		cfg.ImagePath = value
	case "log":
		cfg.LogPath = value
	case "loglevel":
		switch value {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = value
		default:
			return fmt.Errorf("%w: unknown loglevel %q", errBadDirective, value)
		}
	case "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: debug expects true/false", errBadDirective)
		}
		cfg.Debug = b
	case "rtchz":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: rtchz expects an integer", errBadDirective)
		}
		cfg.RTCHz = n
	default:
		return fmt.Errorf("%w: unknown directive %q", errBadDirective, key)
	}
	return nil
}
