package domain

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// Envelope is one line of the worker protocol: a flat JSON object. Requests carry an "action" discriminator,
// responses a "success" flag.
type Envelope map[string]any

func NewRequest(action string) Envelope {
	return Envelope{"action": action}
}

// Success marks fields as a successful response. A nil map yields a bare {"success": true}.
func Success(fields Envelope) Envelope {
	if fields == nil {
		fields = Envelope{}
	}
	fields["success"] = true
	return fields
}

func Failure(err error) Envelope {
	return Envelope{"success": false, "error": err.Error()}
}

func (e Envelope) With(key string, value any) Envelope {
	e[key] = value
	return e
}

func (e Envelope) Action() string {
	s, _ := e["action"].(string)
	return s
}

func (e Envelope) Success() bool {
	ok, _ := e["success"].(bool)
	return ok
}

// ErrorMessage returns the worker's error string of a failed response.
func (e Envelope) ErrorMessage() string {
	s, _ := e["error"].(string)
	return s
}

func (e Envelope) Message() string {
	s, _ := e["message"].(string)
	return s
}

// Preview returns the base64 image carried by the response, preferring the downscaled preview.
func (e Envelope) Preview() string {
	if s, ok := e["preview"].(string); ok && s != "" {
		return s
	}
	s, _ := e["base64"].(string)
	return s
}

// Info decodes the info structure of a response. It accepts both the typed struct (worker side) and the generic
// map produced by decoding a response line.
func (e Envelope) Info() (ImageInfo, bool) {
	switch v := e["info"].(type) {
	case ImageInfo:
		return v, true
	case map[string]any:
		info := ImageInfo{}
		info.Width, _ = toInt(v["width"])
		info.Height, _ = toInt(v["height"])
		info.Mode, _ = v["mode"].(string)
		info.Format, _ = v["format"].(string)
		return info, true
	default:
		return ImageInfo{}, false
	}
}

func (e Envelope) Has(key string) bool {
	v, ok := e[key]
	return ok && v != nil
}

func (e Envelope) String(key, def string) (string, error) {
	v, ok := e[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

func (e Envelope) Float(key string, def float64) (float64, error) {
	v, ok := e[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
	return f, nil
}

func (e Envelope) Int(key string, def int) (int, error) {
	v, ok := e[key]
	if !ok || v == nil {
		return def, nil
	}
	i, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("parameter %s must be an integer", key)
	}
	return i, nil
}

func (e Envelope) Bool(key string, def bool) (bool, error) {
	v, ok := e[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %s must be a boolean", key)
	}
	return b, nil
}

// Color reads an [r, g, b] or [r, g, b, a] integer array.
func (e Envelope) Color(key string, def color.NRGBA) (color.NRGBA, error) {
	v, ok := e[key]
	if !ok || v == nil {
		return def, nil
	}

	var values []int
	switch arr := v.(type) {
	case []int:
		values = arr
	case []any:
		for _, item := range arr {
			i, ok := toInt(item)
			if !ok {
				return color.NRGBA{}, fmt.Errorf("parameter %s must be an integer array", key)
			}
			values = append(values, i)
		}
	default:
		return color.NRGBA{}, fmt.Errorf("parameter %s must be an integer array", key)
	}

	if len(values) != 3 && len(values) != 4 {
		return color.NRGBA{}, errors.New("color needs 3 or 4 components")
	}

	c := color.NRGBA{R: clampByte(values[0]), G: clampByte(values[1]), B: clampByte(values[2]), A: 255}
	if len(values) == 4 {
		c.A = clampByte(values[3])
	}
	return c, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return wholeNumber(n)
	case float32:
		return wholeNumber(float64(n))
	default:
		return 0, false
	}
}

// wholeNumber accepts JSON numbers without a fractional part that fit into an int.
func wholeNumber(f float64) (int, bool) {
	if f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
