/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/c8vm/chip8/chip8"
	"github.com/c8vm/chip8/jit"
	"github.com/c8vm/chip8/vm"
)

var (
	// VM is the machine driver for the loaded guest.
	VM *vm.Machine

	// Recompiler is the translation back-end, nil when interpreting.
	Recompiler *jit.Recompiler

	// Window is the global SDL window.
	Window *sdl.Window

	// Renderer is the global SDL renderer.
	Renderer *sdl.Renderer

	// Debug is the output Logger.
	Debug *Logger

	// Paused is true if emulation is paused (single stepping).
	Paused bool

	// File is the currently opened ROM.
	File string

	// Epoch is when emulation (re)started; the driver is fed elapsed
	// milliseconds since this instant.
	Epoch time.Time

	// Interp forces the interpreter back-end.
	Interp bool

	// VariantName selects the CHIP-8 flavor.
	VariantName string

	// Clock is the guest clock speed in cycles per second.
	Clock uint

	// Disasm dumps the loaded ROM as text and exits.
	Disasm bool

	// KeyMap of modern keyboard keys to CHIP-8 keys.
	KeyMap = map[sdl.Scancode]uint{
		sdl.SCANCODE_X: 0x0,
		sdl.SCANCODE_1: 0x1,
		sdl.SCANCODE_2: 0x2,
		sdl.SCANCODE_3: 0x3,
		sdl.SCANCODE_Q: 0x4,
		sdl.SCANCODE_W: 0x5,
		sdl.SCANCODE_E: 0x6,
		sdl.SCANCODE_A: 0x7,
		sdl.SCANCODE_S: 0x8,
		sdl.SCANCODE_D: 0x9,
		sdl.SCANCODE_Z: 0xA,
		sdl.SCANCODE_C: 0xB,
		sdl.SCANCODE_4: 0xC,
		sdl.SCANCODE_R: 0xD,
		sdl.SCANCODE_F: 0xE,
		sdl.SCANCODE_V: 0xF,
	}
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// parse the command line
	flag.StringVar(&VariantName, "variant", "chip8", "Variant: chip8, 2page, schip, xochip.")
	flag.UintVar(&Clock, "clock", 500, "Guest clock speed in cycles per second.")
	flag.BoolVar(&Interp, "interp", false, "Use the interpreter instead of the recompiler.")
	flag.BoolVar(&Disasm, "disasm", false, "Disassemble the ROM to stdout and exit.")
	flag.Parse()

	// create a new debug log
	Debug = NewLog()

	// initialize random number generation for VM
	rand.Seed(time.Now().UTC().UnixNano())

	// create the machine and load the ROM
	createMachine()

	if file := flag.Arg(0); file != "" {
		if err := load(file); err != nil {
			os.Exit(1)
		}
	} else {
		Debug.Log("Usage: chip8 [flags] <rom>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// disassembly dump mode
	if Disasm {
		dumpDisassembly()
		return
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		panic(err)
	}

	// create the main window, renderer, and screen or panic
	createWindow()
	initAudio()

	// set processor speed and refresh rate
	clock := time.NewTicker(time.Millisecond)
	video := time.NewTicker(time.Second / 60)

	// notify that the main loop has started
	Debug.Logln("Starting program; press 'H' for help")

	// loop until window closed or user quit
	for processEvents() {
		select {
		case <-video.C:
			redraw()
		case <-clock.C:
			if Paused {
				break
			}

			if err := VM.Run(elapsed()); err != nil {
				if err == chip8.Exit {
					Debug.Logln("Guest requested exit")
					return
				}

				Debug.Logln(err.Error(), fmt.Sprintf("@ %04X", VM.State.PC))

				// break the emulation
				pause(true)
			}
		}
	}
}

// createMachine builds the guest state and its execution back-end.
func createMachine() {
	state := chip8.New(variant(), uint32(Clock))

	var backend vm.Backend = vm.Interp{}

	if !Interp {
		var err error

		if Recompiler, err = jit.NewRecompiler(); err != nil {
			Debug.Log(err.Error())
			Debug.Log("Falling back to the interpreter")
		} else {
			backend = Recompiler
		}
	}

	VM = vm.New(state, backend)
	Epoch = time.Now()
}

// variant parses the -variant flag.
func variant() chip8.Variant {
	switch VariantName {
	case "2page":
		return chip8.TwoPage
	case "schip":
		return chip8.SuperChip
	case "xochip":
		return chip8.XOChip
	}

	return chip8.Classic
}

// elapsed returns the emulated milliseconds the guest should have run.
func elapsed() uint32 {
	return uint32(time.Since(Epoch).Milliseconds())
}

// pause stops or resumes emulation, rebasing the clock on resume so the
// guest doesn't try to catch up for the time spent paused.
func pause(p bool) {
	Paused = p

	if !p {
		rebase()
	}
}

// rebase aligns the epoch with the cycles already retired.
func rebase() {
	ran := time.Duration(VM.State.Cycles) * time.Second / time.Duration(VM.State.ClockSpeed)

	Epoch = time.Now().Add(-ran)
}

// createWindow creates the SDL window and renderer or panics.
func createWindow() {
	var err error

	state := VM.State
	w := int32(state.Width * 8)
	h := int32(state.Height * 8)

	if state.Height == 32 {
		h *= 2
	}

	// create the window and renderer
	Window, Renderer, err = sdl.CreateWindowAndRenderer(w, h, sdl.WINDOW_OPENGL)
	if err != nil {
		panic(err)
	}

	// set the title
	Window.SetTitle("CHIP-8")

	initScreen()
}

// processEvents from SDL and map keys to the CHIP-8 VM.
func processEvents() bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.DropEvent:
			load(ev.File)
		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYUP {
				if key, ok := KeyMap[ev.Keysym.Scancode]; ok {
					VM.State.ReleaseKey(key)
				}
			} else {
				if key, ok := KeyMap[ev.Keysym.Scancode]; ok {
					VM.State.PressKey(key)
				} else {
					switch ev.Keysym.Scancode {
					case sdl.SCANCODE_ESCAPE:
						return false
					case sdl.SCANCODE_BACKSPACE:
						reboot()
					case sdl.SCANCODE_F2:
						if File != "" {
							load(File)
						}
					case sdl.SCANCODE_F3:
						open()
					case sdl.SCANCODE_H:
						help()
					case sdl.SCANCODE_F5, sdl.SCANCODE_SPACE:
						pause(!Paused)
					case sdl.SCANCODE_F6, sdl.SCANCODE_F10:
						if Paused {
							step()
						}
					}
				}
			}
		}
	}

	return true
}

// step runs a single instruction while paused.
func step() {
	if err := VM.Step(); err != nil {
		Debug.Logln(err.Error(), fmt.Sprintf("@ %04X", VM.State.PC))
	}

	Debug.Log(VM.State.Disassemble(VM.State.PC))
}

// help logs all the keyboard commands.
func help() {
	Debug.Logln("Keys        | Description")
	Debug.Log("------------+-------------------------------------")
	Debug.Log("BACK        | Reboot")
	Debug.Log("F2          | Reload ROM")
	Debug.Log("F3          | Open ROM")
	Debug.Log("F5 / SPACE  | Pause/break")
	Debug.Log("F6 / F10    | Step")
	Debug.Log("ESC         | Quit")
}

// open shows the open file dialog to load a ROM.
func open() error {
	dlg := dialog.File().Title("Load CHIP-8 ROM")

	// types of files to load
	dlg.Filter("All Files", "*")
	dlg.Filter("ROMs", "rom", "ch8", "")

	// try and load it
	if file, err := dlg.Load(); err == nil {
		return load(file)
	} else {
		return err
	}
}

// load a ROM file.
func load(file string) error {
	// log what is being loaded
	Debug.Logln("Loading", filepath.Base(file))

	// save the (attempted) loaded file
	File = file

	if err := VM.State.LoadFile(file); err != nil {
		Debug.Log(err.Error())
		return err
	}

	// dump stale translations and restart the clock
	if Recompiler != nil {
		Recompiler.Flush()
	}

	Epoch = time.Now()

	return nil
}

// reboot the emulator, restarting the loaded virtual machine ROM.
func reboot() {
	VM.State.Reset()

	if Recompiler != nil {
		Recompiler.Flush()
	}

	Epoch = time.Now()
}

// dumpDisassembly prints the loaded program as text.
func dumpDisassembly() {
	state := VM.State

	for a := int(state.Base()); a < state.MemSize(); a += 2 {
		if state.Memory[a] == 0 && state.Memory[a+1] == 0 {
			continue
		}

		fmt.Println(state.Disassemble(uint16(a)))
	}
}
