package main

// void Tone(void *data, void *stream, int len);
import "C"
import (
	"reflect"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

var (
	// Volume is the current tone volume level. While ST is non-zero the
	// volume is 1.0; when ST hits 0 it is ramped back down to 0.0.
	Volume float32
)

// initAudio initializes an audio device for the CHIP-8 virtual machine.
func initAudio() {
	spec := &sdl.AudioSpec{
		Freq:     3000,
		Format:   sdl.AUDIO_F32,
		Channels: 1,
		Samples:  32,
		Callback: sdl.AudioCallback(C.Tone),
	}

	// open the device and start playing it
	if err := sdl.OpenAudio(spec, nil); err != nil {
		panic(err)
	}

	// start playing the tone immediately
	sdl.PauseAudio(false)

	// no sound volume
	Volume = 0.0
}

//export Tone
func Tone(_ unsafe.Pointer, stream unsafe.Pointer, length C.int) {
	p := uintptr(stream)
	n := int(length)

	// perform the conversion cast
	buf := *(*[]C.float)(unsafe.Pointer(&reflect.SliceHeader{
		Data: p,
		Len:  n,
		Cap:  n,
	}))

	// ramp the volume to the desired end
	if VM != nil && VM.State.ST > 0 {
		Volume = 1.0
	} else {
		if Volume > 0.0 {
			Volume -= 0.25
		}
	}

	// fill in the data with a constant tone
	for i := 0; i < n; i += 4 {
		buf[i] = C.float(Volume)
	}
}
