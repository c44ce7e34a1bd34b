package main

import (
	"github.com/veandco/go-sdl2/sdl"
)

var (
	// Screen is the render target for the guest framebuffer.
	Screen *sdl.Texture
)

// initScreen creates the render target for the CHIP-8 display.
func initScreen() {
	var err error

	// large enough for every variant; only the active area is copied
	Screen, err = Renderer.CreateTexture(sdl.PIXELFORMAT_RGB888, sdl.TEXTUREACCESS_TARGET, 128, 64)
	if err != nil {
		panic(err)
	}
}

// updateScreen redraws the render target from the guest framebuffer.
func updateScreen() {
	if err := Renderer.SetRenderTarget(Screen); err != nil {
		panic(err)
	}

	state := VM.State

	// the background color for the screen
	Renderer.SetDrawColor(143, 145, 133, 255)
	Renderer.Clear()

	// set the pixel color
	Renderer.SetDrawColor(17, 29, 43, 255)

	// draw all the pixels
	for p, on := range state.Display {
		if on {
			x := int32(p % state.Width)
			y := int32(p / state.Width)

			// render the pixel to the screen
			Renderer.DrawPoint(x, y)
		}
	}

	// the core set this; we've consumed the frame
	state.DisplayDirty = false

	// restore the render target
	Renderer.SetRenderTarget(nil)
}

// redraw the window from the render target and present it.
func redraw() {
	if VM.State.DisplayDirty {
		updateScreen()
	}

	Renderer.SetDrawColor(32, 42, 53, 255)
	Renderer.Clear()

	// stretch the active display area to the window
	state := VM.State
	src := sdl.Rect{W: int32(state.Width), H: int32(state.Height)}

	w, h, err := Renderer.GetOutputSize()
	if err != nil {
		w = src.W * 8
		h = src.H * 8
	}

	Renderer.Copy(Screen, &src, &sdl.Rect{W: w, H: h})

	// show it
	Renderer.Present()
}
