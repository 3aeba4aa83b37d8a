// Command mdview streams a markdown file through the rendering engine
// against a headless document and prints the height trace.
//
// Usage:
//
//	mdview [flags] [file]
//
// With no file argument markdown is read from stdin. By default the
// input is fed to the engine in fixed-size chunks with a short pause
// between them, exercising the chunk buffer and its debounce the way a
// live token stream would. With --oneshot the whole input loads in a
// single replace-mode render instead.
//
// Flags:
//
//	--config string       Path to TOML config file
//	--flush-delay int     Chunk debounce window in milliseconds
//	--retry-delay int     Renderer retry interval in milliseconds
//	--width int           Viewport width in pixels
//	--chunk-size int      Bytes per streamed chunk
//	--interval int        Pause between chunks in milliseconds
//	--css string          Inline CSS injected into the document shell
//	--no-images           Suppress image rendering
//	--oneshot             Load the whole input at once instead of streaming
//	--verbose             Debug logging
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/fwojciec/mdview"
	"github.com/fwojciec/mdview/dom"
	"github.com/fwojciec/mdview/goldmark"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mdview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	def := defaultConfig()
	fs := pflag.NewFlagSet("mdview", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to TOML config file")
	flushDelay := fs.Int("flush-delay", def.FlushDelayMS, "Chunk debounce window in milliseconds")
	retryDelay := fs.Int("retry-delay", def.RetryDelayMS, "Renderer retry interval in milliseconds")
	width := fs.Int("width", def.ViewportWidth, "Viewport width in pixels")
	chunkSize := fs.Int("chunk-size", def.ChunkSize, "Bytes per streamed chunk")
	interval := fs.Int("interval", def.IntervalMS, "Pause between chunks in milliseconds")
	css := fs.String("css", def.CSS, "Inline CSS injected into the document shell")
	noImages := fs.Bool("no-images", false, "Suppress image rendering")
	oneshot := fs.Bool("oneshot", false, "Load the whole input at once instead of streaming")
	verbose := fs.Bool("verbose", false, "Debug logging")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// The config file fills in flags the command line left untouched.
	if !fs.Changed("flush-delay") {
		*flushDelay = cfg.FlushDelayMS
	}
	if !fs.Changed("retry-delay") {
		*retryDelay = cfg.RetryDelayMS
	}
	if !fs.Changed("width") {
		*width = cfg.ViewportWidth
	}
	if !fs.Changed("chunk-size") {
		*chunkSize = cfg.ChunkSize
	}
	if !fs.Changed("interval") {
		*interval = cfg.IntervalMS
	}
	if !fs.Changed("css") {
		*css = cfg.CSS
	}
	if !fs.Changed("no-images") {
		*noImages = !cfg.Images
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	source, err := readInput(fs.Args())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	geom := dom.DefaultGeometry()
	geom.ViewportWidth = float64(*width)
	doc := dom.New(dom.WithGeometry(geom), dom.WithLogger(log))
	doc.RegisterConverter(dom.DefaultConverterName, goldmark.Converter())

	engine := mdview.New(doc,
		mdview.WithFlushDelay(time.Duration(*flushDelay)*time.Millisecond),
		mdview.WithRetryDelay(time.Duration(*retryDelay)*time.Millisecond),
		mdview.WithLogger(log),
		mdview.WithRenderedHandler(func(h float64) {
			fmt.Printf("height %.0f\n", h)
		}),
		mdview.WithLinkHandler(func(url string) {
			log.WithField("url", url).Info("link activated")
		}),
	)
	defer engine.Close()

	loadOpts := []mdview.LoadOption{mdview.WithImages(!*noImages)}
	if *css != "" {
		loadOpts = append(loadOpts, mdview.WithCSS(*css))
	}

	if *oneshot {
		if err := engine.Load(ctx, string(source), loadOpts...); err != nil {
			return fmt.Errorf("load: %w", err)
		}
	} else {
		if err := engine.Load(ctx, "", loadOpts...); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		if err := stream(ctx, engine, source, *chunkSize, time.Duration(*interval)*time.Millisecond); err != nil {
			return err
		}
		// Let the last debounced flush land before the final probe.
		settle := time.Duration(*flushDelay)*time.Millisecond + 50*time.Millisecond
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h, err := engine.MeasureHeight(ctx)
	if err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	fmt.Printf("final %.0f\n", h)
	return nil
}

// stream feeds source to the engine in fixed-size chunks, pausing
// between them to mimic a live token stream.
func stream(ctx context.Context, engine *mdview.Engine, source []byte, size int, pause time.Duration) error {
	if size <= 0 {
		size = 64
	}
	for off := 0; off < len(source); off += size {
		end := off + size
		if end > len(source) {
			end = len(source)
		}
		if err := engine.AppendChunk(string(source[off:end])); err != nil {
			return fmt.Errorf("append chunk: %w", err)
		}
		if pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
