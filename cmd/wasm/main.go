//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/engine"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phoneme"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorInvalidAudio
	ErrorAnalysisFailed
	ErrorEncoding
)

// Scores recorded audio against a word whose phonemes the page already knows.
// Arguments: audioArray, sampleRate, channels, word, phonemes ("p e n ..."),
// and optionally lang, recognizedText, confidence.
// Returns: {error: number, data: object | string}
func analyzePronunciation(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 5 arguments: audioArray, sampleRate, channels, word, phonemes")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float64Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}
	if channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channels must be a number")
	}
	if args[3].Type() != js.TypeString || args[4].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "word and phonemes must be strings")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	word := args[3].String()
	phonemes := phonemizer.ParseIPA(args[4].String())

	lang := phoneme.DefaultLanguage
	if len(args) > 5 && args[5].Type() == js.TypeString && args[5].String() != "" {
		lang = args[5].String()
	}

	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}
	if strings.TrimSpace(word) == "" || len(phonemes) == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "word and phonemes must not be empty")
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}

	if channels == 2 {
		samples = stereoToMono(samples)
	}
	wave := audio.Waveform{Samples: samples, SampleRate: sampleRate}

	// The browser supplies the transcription, so a one-word lexicon serves it.
	lex := phonemizer.NewLexicon(lang)
	lex.Add(word, lang, phonemes)

	var rec recognizer.Recognizer = recognizer.Disabled{}
	if len(args) > 7 && args[6].Type() == js.TypeString && args[7].Type() == js.TypeNumber {
		rec = recognizer.Static{Result: recognizer.Recognition{
			Text:       args[6].String(),
			Confidence: args[7].Float(),
		}}
	}

	eng, err := engine.New(engine.Config{Transcriber: lex, Recognizer: rec, Language: lang})
	if err != nil {
		return makeErrorResponse(ErrorAnalysisFailed, err.Error())
	}

	result, err := eng.AnalyzeIn(context.Background(), wave, word, lang)
	if err != nil {
		if engine.KindOf(err) == engine.KindInput {
			return makeErrorResponse(ErrorInvalidAudio, fmt.Sprintf("Invalid audio: %v", err))
		}
		return makeErrorResponse(ErrorAnalysisFailed, fmt.Sprintf("Analysis failed: %v", err))
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return makeErrorResponse(ErrorEncoding, fmt.Sprintf("Failed to encode result: %v", err))
	}

	response := js.Global().Get("Object").New()
	response.Set("error", ErrorNone)
	response.Set("data", js.Global().Get("JSON").Call("parse", string(encoded)))
	return response
}

func stereoToMono(stereo []float64) []float64 {
	if len(stereo)%2 != 0 {
		stereo = stereo[:len(stereo)-1]
	}

	monoLength := len(stereo) / 2
	mono := make([]float64, monoLength)

	for i := 0; i < monoLength; i++ {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2.0
	}

	return mono
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 PhoneticHybrid WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("analyzePronunciation", js.FuncOf(analyzePronunciation))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ PhoneticHybrid WASM module loaded and ready")
	}

	<-done
}
