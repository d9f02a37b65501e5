/*
 * kos - Main process.
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/kos/command/console"
	"github.com/rcornwell/kos/config/bootconfig"
	"github.com/rcornwell/kos/internal/kernel"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Boot configuration file")
	optImage := getopt.StringLong("image", 'i', "", "Filesystem image (overrides config)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file (overrides config)")
	optConsole := getopt.BoolLong("console", 0, "Start the interactive debug console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	cfg := bootconfig.Default()
	if *optConfig != "" {
		var err error
		cfg, err = bootconfig.Load(*optConfig, cfg)
		if err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
	}
	if *optImage != "" {
		cfg.ImagePath = *optImage
	}
	if *optLogFile != "" {
		cfg.LogPath = *optLogFile
	}

	k, err := kernel.New(cfg)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	k.Boot()
	k.Log().Info("kos started")

	go k.Start()

	if *optConsole {
		console.Run(k)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	k.Log().Info("shutting down")
	k.Stop()
	k.Log().Info("shutdown complete")
}
