package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_say(const char *text, const char *voice, int rate)
{
	if (!text || !voice)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs = { 0 };
	specs.languages = voice;
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{
		espeak_Terminate();
		return -3;
	}
	if (rate > 0)
	{ espeak_SetParameter(espeakRATE, rate, 0); }

	espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"unsafe"
)

const DefaultVoice = "fr"

// espeak-ng keeps global state, so only one utterance is synthesized at a time.
var mu sync.Mutex

// Espeak speaks text through the default output device and blocks until
// playback ends.
type Espeak struct {
	Voice string
	// Rate in words per minute; 0 keeps the espeak default.
	Rate int
}

func (e Espeak) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	voice := e.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	cvoice := C.CString(voice)
	defer C.free(unsafe.Pointer(cvoice))

	mu.Lock()
	defer mu.Unlock()

	log.Debug("Speaking", "voice", voice, "chars", len(text))
	if rc := C.espeak_say(ctext, cvoice, C.int(e.Rate)); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}
