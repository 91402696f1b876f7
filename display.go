package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Raimguzhinov/pixelate/imagestore"
	"github.com/Raimguzhinov/pixelate/pixelate"
)

const windowTitle = "Image Processing"

// window shows a pixelate.Frame. All methods must run on the SDL thread.
type window struct {
	win     *sdl.Window
	rend    *sdl.Renderer
	tex     *sdl.Texture
	frame   *pixelate.Frame
	staging []byte
}

func openWindow(title string, frame *pixelate.Frame) (*window, error) {
	w, h := frame.Size()

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, int32(w), int32(h), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	rend, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.Destroy()
		return nil, errors.Wrap(err, "create renderer")
	}
	tex, err := rend.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		rend.Destroy()
		win.Destroy()
		return nil, errors.Wrap(err, "create texture")
	}
	return &window{
		win:     win,
		rend:    rend,
		tex:     tex,
		frame:   frame,
		staging: make([]byte, w*h*4),
	}, nil
}

// present uploads the frame if it changed and redraws the window.
func (w *window) present() error {
	width, height := w.frame.Size()
	if w.frame.CopyTo(w.staging, width*4) {
		pixels, pitch, err := w.tex.Lock(nil)
		if err != nil {
			return errors.Wrap(err, "lock texture")
		}
		for row := 0; row < height; row++ {
			src := w.staging[row*width*4 : (row+1)*width*4]
			copy(pixels[row*pitch:row*pitch+width*4], src)
		}
		w.tex.Unlock()
	}
	w.rend.SetDrawColor(0, 0, 0, 255)
	w.rend.Clear()
	w.rend.Copy(w.tex, nil, nil)
	w.rend.Present()
	return nil
}

// closed drains pending events and reports whether the user asked to quit.
func (w *window) closed() bool {
	id, _ := w.win.GetID()
	quit := false
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE && e.WindowID == id {
				quit = true
			}
		}
	}
	return quit
}

func (w *window) destroy() {
	w.tex.Destroy()
	w.rend.Destroy()
	w.win.Destroy()
}

// runWindowed runs inside sdl.Main. Processing happens on its own
// goroutine while this one keeps the window responsive; the window stays
// open after processing until the user closes it, and closing it early
// cancels the run.
func runWindowed(opts *Options) int {
	var err error
	sdl.Do(func() { err = sdl.Init(sdl.INIT_VIDEO) })
	if err != nil {
		slog.Error("cannot initialize SDL", "err", err)
		return 1
	}
	defer sdl.Do(sdl.Quit)

	maxW, maxH := opts.MaxWidth, opts.MaxHeight
	if maxW <= 0 && maxH <= 0 {
		sdl.Do(func() {
			if b, err := sdl.GetDisplayBounds(0); err == nil {
				maxW, maxH = int(b.W), int(b.H)
			}
		})
	}
	orig, err := imagestore.Load(opts.Args.Image, maxW, maxH)
	if err != nil {
		slog.Error("cannot load image", "err", err)
		return 1
	}
	grid := imagestore.Copy(orig)
	frame := pixelate.NewFrame(grid)

	var win *window
	sdl.Do(func() { win, err = openWindow(windowTitle, frame) })
	if err != nil {
		slog.Error("cannot open window", "err", err)
		return 1
	}
	defer sdl.Do(win.destroy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan int, 1)
	go func() { done <- process(ctx, opts, grid, frame) }()

	ticker := time.NewTicker(16 * time.Millisecond) // ~60 FPS
	defer ticker.Stop()
	code, finished, quit := 0, false, false
	for !quit {
		sdl.Do(func() {
			quit = win.closed()
			if err := win.present(); err != nil {
				slog.Warn("cannot draw frame", "err", err)
			}
		})
		select {
		case code = <-done:
			finished = true
			slog.Info("processing finished, close the window to exit")
		case <-ticker.C:
		}
	}
	if !finished {
		cancel()
		code = <-done
	}
	return code
}
