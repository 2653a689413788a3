package main

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cbegin/subsynth-go"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	windowW    = 1000
	windowH    = 640
	minWindowW = 900
	minWindowH = 600

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	pianoWhiteKeys = 15
	scopeSamples   = 1024
)

var (
	bgColor         = color.RGBA{192, 192, 192, 255}
	panelColor      = color.RGBA{192, 192, 192, 255}
	borderColor     = color.RGBA{128, 128, 128, 255}
	bevelLight      = color.RGBA{255, 255, 255, 255}
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}
	keyDownColor    = color.RGBA{80, 200, 255, 255}
	waveColor       = color.RGBA{80, 200, 255, 220}
)

var waveNames = map[int]string{
	subsynth.WaveSine:     "Sine",
	subsynth.WaveSquare:   "Square",
	subsynth.WaveSaw:      "Saw",
	subsynth.WaveTriangle: "Triangle",
}

var filterNames = map[int]string{
	subsynth.FilterLowPass:  "Low-pass",
	subsynth.FilterBandPass: "Band-pass",
	subsynth.FilterHighPass: "High-pass",
}

// computerKeys maps a QWERTY row to semitones above the base C.
var computerKeys = []struct {
	key      ebiten.Key
	semitone int
}{
	{ebiten.KeyA, 0}, {ebiten.KeyW, 1}, {ebiten.KeyS, 2}, {ebiten.KeyE, 3},
	{ebiten.KeyD, 4}, {ebiten.KeyF, 5}, {ebiten.KeyT, 6}, {ebiten.KeyG, 7},
	{ebiten.KeyY, 8}, {ebiten.KeyH, 9}, {ebiten.KeyU, 10}, {ebiten.KeyJ, 11},
	{ebiten.KeyK, 12}, {ebiten.KeyO, 13}, {ebiten.KeyL, 14},
}

var (
	waveKeys   = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}
	filterKeys = []ebiten.Key{ebiten.Key5, ebiten.Key6, ebiten.Key7}
)

var whiteSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

type slider struct {
	label  string
	min    float64
	max    float64
	log    bool
	value  float64
	format string
}

func (s *slider) fraction() float64 {
	if s.log {
		return math.Log(s.value/s.min) / math.Log(s.max/s.min)
	}
	return (s.value - s.min) / (s.max - s.min)
}

func (s *slider) setFraction(t float64) {
	t = clamp(t, 0, 1)
	if s.log {
		s.value = s.min * math.Pow(s.max/s.min, t)
		return
	}
	s.value = s.min + t*(s.max-s.min)
}

const (
	sliderAttack = iota
	sliderDecay
	sliderSustain
	sliderRelease
	sliderCutoff
	sliderResonance
	sliderGain
	sliderCount
)

type game struct {
	player   *subsynth.Player
	keyboard *subsynth.Keyboard
	scope    *scope
	midiName string

	waveform int
	filter   int
	sliders  [sliderCount]slider
	dragging int

	octave    int
	heldKeys  map[ebiten.Key]int
	mouseNote int

	snap     []float32
	wavePeak float64

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(pl *subsynth.Player, kb *subsynth.Keyboard, sc *scope, midiName string) *game {
	p := pl.Params()
	g := &game{
		player:    pl,
		keyboard:  kb,
		scope:     sc,
		midiName:  midiName,
		waveform:  int(p.Waveform),
		filter:    int(p.Filter),
		dragging:  -1,
		octave:    4,
		heldKeys:  make(map[ebiten.Key]int),
		mouseNote: -1,
		snap:      make([]float32, 0, scopeSamples),
		textCache: make(map[string]*ebiten.Image, 256),
		viewW:     windowW,
		viewH:     windowH,
	}
	g.sliders = [sliderCount]slider{
		sliderAttack:    {label: "Atk", min: 0, max: 1, value: p.Envelope.Attack, format: "%.2fs"},
		sliderDecay:     {label: "Dec", min: 0, max: 1, value: p.Envelope.Decay, format: "%.2fs"},
		sliderSustain:   {label: "Sus", min: 0, max: 1, value: p.Envelope.Sustain, format: "%.2f"},
		sliderRelease:   {label: "Rel", min: 0, max: 1, value: p.Envelope.Release, format: "%.2fs"},
		sliderCutoff:    {label: "Cut", min: 20, max: 20000, log: true, value: clamp(p.CutoffHz, 20, 20000), format: "%.0fHz"},
		sliderResonance: {label: "Res", min: 1, max: 5, value: p.Resonance, format: "%.1f"},
		sliderGain:      {label: "Gain", min: -50, max: 0, value: clamp(p.GainDB, -50, 0), format: "%.0fdB"},
	}
	return g
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleKeys()
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layoutRects()

	g.drawPanel(screen, l.controls)
	g.drawButton(screen, l.wave, "Wave: "+waveNames[g.waveform])
	g.drawButton(screen, l.filter, "Filt: "+filterNames[g.filter])
	for i := range g.sliders {
		g.drawSlider(screen, l.sliders[i], &g.sliders[i])
	}
	g.drawSunkenPanel(screen, l.scope)
	g.drawScope(screen, l.scope)
	g.drawPiano(screen, l.piano)
	g.drawSunkenPanel(screen, l.status)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, minWindowW)
	g.viewH = max(outsideH, minWindowH)
	return g.viewW, g.viewH
}

func (g *game) Close() {
	g.keyboard.ReleaseAll(subsynth.SourceScreen)
	g.keyboard.ReleaseAll(subsynth.SourceComputer)
}

type uiLayout struct {
	controls, wave, filter image.Rectangle
	sliders                [sliderCount]image.Rectangle
	scope, piano, status   image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w, h := g.viewW, g.viewH
	pad := 16
	statusH := 40
	controlsH := 4*44 + 16

	var l uiLayout
	l.controls = image.Rect(pad, pad, w-pad, pad+controlsH)
	l.wave = image.Rect(pad+8, pad+8, pad+248, pad+52)
	l.filter = image.Rect(pad+8, pad+60, pad+248, pad+104)

	colX := pad + 260
	colW := (w - pad - 8 - colX) / 2
	for i := range l.sliders {
		col, row := i/4, i%4
		x := colX + col*colW
		y := pad + 8 + row*44
		l.sliders[i] = image.Rect(x, y, x+colW-8, y+40)
	}

	l.status = image.Rect(pad, h-pad-statusH, w-pad, h-pad)
	pianoTop := l.controls.Max.Y + 12 + (l.status.Min.Y-12-l.controls.Max.Y-12)/2
	l.scope = image.Rect(pad, l.controls.Max.Y+12, w-pad, pianoTop-12)
	l.piano = image.Rect(pad, pianoTop, w-pad, l.status.Min.Y-12)
	return l
}

func (g *game) handleKeys() {
	for i, k := range waveKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.setWaveform(subsynth.WaveSine + i)
		}
	}
	for i, k := range filterKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.setFilter(subsynth.FilterLowPass + i)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) && g.octave > 0 {
		g.octave--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) && g.octave < 8 {
		g.octave++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.keyboard.ReleaseAll(subsynth.SourceComputer)
		clear(g.heldKeys)
		g.player.AllNotesOff()
	}
	for _, ck := range computerKeys {
		if inpututil.IsKeyJustPressed(ck.key) {
			note := g.octave*12 + ck.semitone
			g.heldKeys[ck.key] = note
			g.keyboard.Press(subsynth.SourceComputer, note, 0.8)
		}
		if inpututil.IsKeyJustReleased(ck.key) {
			if note, ok := g.heldKeys[ck.key]; ok {
				delete(g.heldKeys, ck.key)
				g.keyboard.Release(subsynth.SourceComputer, note)
			}
		}
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.wave):
			g.setWaveform(g.waveform%4 + 1)
			return
		case pointInRect(mx, my, l.filter):
			g.setFilter(g.filter%3 + 1)
			return
		}
		for i := range l.sliders {
			if pointInRect(mx, my, l.sliders[i]) {
				g.dragging = i
			}
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = -1
		if g.mouseNote >= 0 {
			g.keyboard.Release(subsynth.SourceScreen, g.mouseNote)
			g.mouseNote = -1
		}
		return
	}
	if g.dragging >= 0 {
		g.updateSliderFromMouse(mx, l.sliders[g.dragging], g.dragging)
		return
	}

	note := -1
	if pointInRect(mx, my, l.piano) {
		note = g.pianoKeyAt(mx, my, l.piano)
	}
	if note == g.mouseNote {
		return
	}
	if g.mouseNote >= 0 {
		g.keyboard.Release(subsynth.SourceScreen, g.mouseNote)
	}
	g.mouseNote = note
	if note >= 0 {
		g.keyboard.Press(subsynth.SourceScreen, note, 0.8)
	}
}

func (g *game) setWaveform(id int) {
	g.waveform = id
	g.player.SetWaveform(id)
}

func (g *game) setFilter(id int) {
	g.filter = id
	g.pushFilter()
}

func (g *game) pushFilter() {
	g.player.SetFilter(g.filter, g.sliders[sliderCutoff].value, g.sliders[sliderResonance].value)
}

func (g *game) updateSliderFromMouse(mx int, rect image.Rectangle, idx int) {
	trackX, trackW := sliderTrack(rect)
	if trackW <= 0 {
		return
	}
	g.sliders[idx].setFraction(float64(mx-trackX) / float64(trackW))
	switch idx {
	case sliderAttack, sliderDecay, sliderSustain, sliderRelease:
		g.player.SetADSR(
			g.sliders[sliderAttack].value,
			g.sliders[sliderDecay].value,
			g.sliders[sliderSustain].value,
			g.sliders[sliderRelease].value,
		)
	case sliderCutoff, sliderResonance:
		g.pushFilter()
	case sliderGain:
		g.player.SetGain(g.sliders[sliderGain].value)
	}
}

func sliderTrack(rect image.Rectangle) (int, int) {
	x := rect.Min.X + 11*charW
	return x, rect.Max.X - 12 - x
}

func (g *game) drawSlider(screen *ebiten.Image, rect image.Rectangle, s *slider) {
	g.drawPanel(screen, rect)
	label := s.label + " " + fmt.Sprintf(s.format, s.value)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+6)

	trackX, trackW := sliderTrack(rect)
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	fillW := int(float64(trackW) * clamp(s.fraction(), 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := min(max(trackX+fillW-5, trackX-5), trackX+trackW-5)
	knob := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knob.Min.X), float64(knob.Min.Y), float64(knob.Dx()), float64(knob.Dy()), panelColor)
	drawBorder(screen, knob)
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	inner := rect.Inset(8)
	width, height := inner.Dx(), inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	g.snap = g.scope.Snapshot(g.snap[:cap(g.snap)])
	samples := g.snap
	if len(samples) < 2 {
		return
	}
	midY := inner.Min.Y + height/2
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 255})

	// Auto-gain: fast attack, slow release.
	peak := 0.0
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	target := math.Max(peak, 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	gain := float64(height/2-2) / math.Max(g.wavePeak, 0.01)

	trigger := findZeroCrossing(samples, len(samples)/2)
	visible := max(len(samples)-trigger, 2)
	prevX := inner.Min.X
	prevY := midY - int(float64(samples[trigger])*gain)
	for px := 1; px < width; px++ {
		si := min(trigger+px*visible/width, len(samples)-1)
		x := inner.Min.X + px
		y := midY - int(float64(samples[si])*gain)
		ebitenutil.DrawLine(screen, float64(prevX), float64(prevY), float64(x), float64(y), waveColor)
		prevX, prevY = x, y
	}
}

func (g *game) baseNote() int { return g.octave * 12 }

// pianoKeyAt returns the note under the cursor, black keys first.
func (g *game) pianoKeyAt(mx, my int, rect image.Rectangle) int {
	ww := float64(rect.Dx()) / pianoWhiteKeys
	x := float64(mx - rect.Min.X)
	if my < rect.Min.Y+rect.Dy()*6/10 {
		for i := 0; i < pianoWhiteKeys-1; i++ {
			semi := whiteSemitones[i%7]
			if semi == 4 || semi == 11 {
				continue
			}
			bx := float64(i+1)*ww - ww*0.3
			if x >= bx && x < bx+ww*0.6 {
				return g.baseNote() + (i/7)*12 + semi + 1
			}
		}
	}
	i := int(x / ww)
	if i < 0 || i >= pianoWhiteKeys {
		return -1
	}
	return g.baseNote() + (i/7)*12 + whiteSemitones[i%7]
}

func (g *game) drawPiano(screen *ebiten.Image, rect image.Rectangle) {
	ww := float64(rect.Dx()) / pianoWhiteKeys
	top := float64(rect.Min.Y)
	h := float64(rect.Dy())
	for i := 0; i < pianoWhiteKeys; i++ {
		note := g.baseNote() + (i/7)*12 + whiteSemitones[i%7]
		fill := color.Color(bevelLight)
		if g.keyboard.IsDown(note) {
			fill = keyDownColor
		}
		x := float64(rect.Min.X) + float64(i)*ww
		ebitenutil.DrawRect(screen, x, top, ww-1, h, fill)
		ebitenutil.DrawRect(screen, x+ww-1, top, 1, h, bevelDarker)
	}
	for i := 0; i < pianoWhiteKeys-1; i++ {
		semi := whiteSemitones[i%7]
		if semi == 4 || semi == 11 {
			continue
		}
		note := g.baseNote() + (i/7)*12 + semi + 1
		fill := color.Color(color.RGBA{16, 16, 16, 255})
		if g.keyboard.IsDown(note) {
			fill = keyDownColor
		}
		bx := float64(rect.Min.X) + float64(i+1)*ww - ww*0.3
		ebitenutil.DrawRect(screen, bx, top, ww*0.6, h*0.6, fill)
	}
	drawSunkenBorder(screen, rect)
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	midi := "none"
	if g.midiName != "" {
		midi = g.midiName
	}
	msg := fmt.Sprintf("Voices %d/%d  Oct %d  MIDI %s", g.player.ActiveVoices(), g.player.VoiceCount(), g.octave, midi)
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	g.drawPanel(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised bevel.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
}

// drawSunkenBorder draws a sunken bevel.
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len([]rune(msg))*7), 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 1000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}
