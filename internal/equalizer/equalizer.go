// Package equalizer содержит 10-полосный эквалайзер для аудио-потока
package equalizer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/gopxl/beep"
)

// NumBands количество полос эквалайзера
const NumBands = 10

// bandQ добротность пикового фильтра, одинаковая для всех полос
const bandQ = 1.0

// Frequencies фиксированные центральные частоты полос в герцах
var Frequencies = [NumBands]int{32, 64, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

// ErrBandIndex возвращается при обращении к полосе вне диапазона 0..9
var ErrBandIndex = errors.New("номер полосы вне диапазона")

// coeffs коэффициенты биквадратного фильтра
type coeffs struct {
	b0, b1, b2, a1, a2 float64
}

// identity пропускает сигнал без изменений
var identity = coeffs{b0: 1}

// peaking вычисляет коэффициенты пикового фильтра.
// При нулевом усилении полоса полностью прозрачна.
func peaking(fc, q, gainDB, fs float64) coeffs {
	if gainDB == 0 {
		return identity
	}
	a := math.Pow(10, gainDB/20)
	omega := 2 * math.Pi * fc / fs
	sn := math.Sin(omega)
	cs := math.Cos(omega)
	alpha := sn / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cs
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cs
	a2 := 1 - alpha/a

	inv := 1 / a0
	return coeffs{
		b0: b0 * inv,
		b1: b1 * inv,
		b2: b2 * inv,
		a1: a1 * inv,
		a2: a2 * inv,
	}
}

// Chain цепочка из десяти пиковых фильтров, включаемая между
// декодированным аудио и выводом. Усиления живут в самой цепочке,
// а не в источнике: подключение нового источника их сохраняет.
type Chain struct {
	mu         sync.Mutex
	src        beep.Streamer
	sampleRate float64
	gains      [NumBands]float64
	cs         [NumBands]coeffs
	// Состояние фильтров: канал -> полоса -> (z1, z2)
	state [2][NumBands][2]float64
}

// NewChain создает цепочку с нулевыми усилениями
func NewChain() *Chain {
	c := &Chain{}
	for i := range c.cs {
		c.cs[i] = identity
	}
	return c
}

// Attach подключает цепочку к новому источнику. Состояние фильтров
// сбрасывается, ранее выставленные усиления сохраняются.
func (c *Chain) Attach(src beep.Streamer, sr beep.SampleRate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.src = src
	c.sampleRate = float64(sr)
	c.state = [2][NumBands][2]float64{}
	for i := range c.cs {
		c.cs[i] = peaking(float64(Frequencies[i]), bandQ, c.gains[i], c.sampleRate)
	}
}

// Detach отключает цепочку от источника
func (c *Chain) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.src = nil
}

// SetGain выставляет усиление полосы в децибелах. Применяется к живому
// потоку сразу: меняются только коэффициенты, состояние фильтра
// не сбрасывается, поэтому щелчков не возникает.
func (c *Chain) SetGain(band int, gainDB float64) error {
	if band < 0 || band >= NumBands {
		return ErrBandIndex
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gains[band] = gainDB
	if c.sampleRate > 0 {
		c.cs[band] = peaking(float64(Frequencies[band]), bandQ, gainDB, c.sampleRate)
	}
	return nil
}

// Gain возвращает усиление полосы в децибелах
func (c *Chain) Gain(band int) (float64, error) {
	if band < 0 || band >= NumBands {
		return 0, ErrBandIndex
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gains[band], nil
}

// Gains возвращает усиления всех полос
func (c *Chain) Gains() [NumBands]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gains
}

// ApplyStored выставляет усиления из сохраненной формы настроек.
// Неизвестные ключи игнорируются, отсутствующие и нечитаемые значения
// дают 0 дБ.
func (c *Chain) ApplyStored(eq map[string]string) {
	for band, freq := range Frequencies {
		gain := 0.0
		if raw, ok := eq[strconv.Itoa(freq)]; ok {
			if v, err := ParseGain(raw); err == nil {
				gain = v
			}
		}
		_ = c.SetGain(band, gain)
	}
}

// ParseGain разбирает усиление из строки. Запятая в качестве
// десятичного разделителя допустима.
func ParseGain(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// Stream реализует beep.Streamer: читает сэмплы источника и проводит
// каждый канал через все десять полос.
func (c *Chain) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		return 0, false
	}
	n, ok := c.src.Stream(samples)
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			s := samples[i][ch]
			for b := 0; b < NumBands; b++ {
				cf := c.cs[b]
				z := &c.state[ch][b]
				out := cf.b0*s + z[0]
				z[0] = cf.b1*s - cf.a1*out + z[1]
				z[1] = cf.b2*s - cf.a2*out
				s = out
			}
			samples[i][ch] = s
		}
	}
	return n, ok
}

// Err реализует beep.Streamer
func (c *Chain) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src == nil {
		return nil
	}
	return c.src.Err()
}
