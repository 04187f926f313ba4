package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	ActionLoadFile         = "load_file"
	ActionLoadBase64       = "load_base64"
	ActionSaveFile         = "save_file"
	ActionGetBase64        = "get_base64"
	ActionGetInfo          = "get_info"
	ActionBatchLoad        = "batch_load"
	ActionReset            = "reset"
	ActionClear            = "clear"
	ActionThumbnail        = "thumbnail"
	ActionResize           = "resize"
	ActionRotate           = "rotate"
	ActionCrop             = "crop"
	ActionCropCenter       = "crop_center"
	ActionFlip             = "flip"
	ActionGrayscale        = "grayscale"
	ActionBrightness       = "brightness"
	ActionContrast         = "contrast"
	ActionSaturation       = "saturation"
	ActionWhiteBalance     = "white_balance"
	ActionColorTemperature = "color_temperature"
	ActionHueShift         = "hue_shift"
	ActionAutoContrast     = "auto_contrast"
	ActionEqualize         = "equalize"
	ActionInvert           = "invert"
	ActionSepia            = "sepia"
	ActionBlur             = "blur"
	ActionSharpen          = "sharpen"
	ActionEdgeDetect       = "edge_detect"
	ActionEmboss           = "emboss"
	ActionPixelate         = "pixelate"
	ActionVignette         = "vignette"
	ActionArtEffect        = "art_effect"
	ActionAddBorder        = "add_border"
	ActionListActions      = "list_actions"
	ActionPing             = "ping"
)

const (
	CategoryFile      = "file_operations"
	CategoryTransform = "basic_transforms"
	CategoryColor     = "color_adjustments"
	CategoryEffects   = "filters_effects"
	CategorySystem    = "system"
)

type ParamKind int

const (
	KindNumber ParamKind = iota
	KindInt
	KindBool
	KindString
	KindColor
)

type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
}

type ActionSpec struct {
	Name        string
	Category    string
	Description string
	Params      []Param
}

func req(name string, kind ParamKind) Param { return Param{Name: name, Kind: kind, Required: true} }
func opt(name string, kind ParamKind) Param { return Param{Name: name, Kind: kind} }

// Catalog lists every action the worker accepts, in presentation order.
var Catalog = []ActionSpec{
	{ActionLoadFile, CategoryFile, "load an image file", []Param{req("file_path", KindString)}},
	{ActionLoadBase64, CategoryFile, "load an image from base64", []Param{req("base64", KindString)}},
	{ActionSaveFile, CategoryFile, "save the current image",
		[]Param{req("output_path", KindString), opt("quality", KindInt)}},
	{ActionGetBase64, CategoryFile, "encode the current image as base64", []Param{opt("format", KindString)}},
	{ActionGetInfo, CategoryFile, "describe the current image", nil},
	{ActionBatchLoad, CategoryFile, "list the images in a folder", []Param{req("folder_path", KindString)}},
	{ActionReset, CategoryFile, "restore the image as loaded", nil},
	{ActionClear, CategoryFile, "unload the current image", nil},

	{ActionThumbnail, CategoryTransform, "shrink to fit a box",
		[]Param{opt("max_width", KindInt), opt("max_height", KindInt)}},
	{ActionResize, CategoryTransform, "resize",
		[]Param{req("width", KindInt), req("height", KindInt), opt("keep_aspect", KindBool)}},
	{ActionRotate, CategoryTransform, "rotate counter-clockwise",
		[]Param{req("angle", KindNumber), opt("expand", KindBool), opt("fill_color", KindColor)}},
	{ActionCrop, CategoryTransform, "crop to a box",
		[]Param{opt("left", KindInt), opt("top", KindInt), req("right", KindInt), req("bottom", KindInt)}},
	{ActionCropCenter, CategoryTransform, "crop around the center",
		[]Param{req("width", KindInt), req("height", KindInt)}},
	{ActionFlip, CategoryTransform, "flip (horizontal/vertical)", []Param{req("direction", KindString)}},

	{ActionGrayscale, CategoryColor, "convert to grayscale", nil},
	{ActionBrightness, CategoryColor, "adjust brightness", []Param{req("factor", KindNumber)}},
	{ActionContrast, CategoryColor, "adjust contrast", []Param{req("factor", KindNumber)}},
	{ActionSaturation, CategoryColor, "adjust saturation", []Param{req("factor", KindNumber)}},
	{ActionWhiteBalance, CategoryColor, "white balance", []Param{opt("method", KindString)}},
	{ActionColorTemperature, CategoryColor, "color temperature (2000-10000K)",
		[]Param{req("temperature", KindNumber)}},
	{ActionHueShift, CategoryColor, "shift hue (0-360)", []Param{req("degrees", KindNumber)}},
	{ActionAutoContrast, CategoryColor, "stretch contrast", []Param{opt("cutoff", KindNumber)}},
	{ActionEqualize, CategoryColor, "equalize the histogram", nil},
	{ActionInvert, CategoryColor, "negative", nil},
	{ActionSepia, CategoryColor, "sepia tone", []Param{opt("intensity", KindNumber)}},

	{ActionBlur, CategoryEffects, "blur (gaussian/box/motion)",
		[]Param{opt("radius", KindNumber), opt("blur_type", KindString)}},
	{ActionSharpen, CategoryEffects, "sharpen", []Param{opt("factor", KindNumber)}},
	{ActionEdgeDetect, CategoryEffects, "edge detection (default/enhance/contour)",
		[]Param{opt("method", KindString)}},
	{ActionEmboss, CategoryEffects, "emboss", nil},
	{ActionPixelate, CategoryEffects, "mosaic", []Param{opt("pixel_size", KindInt)}},
	{ActionVignette, CategoryEffects, "darken the edges", []Param{opt("strength", KindNumber)}},
	{ActionArtEffect, CategoryEffects, "art effect (poster/sketch/oil_paint/cartoon)",
		[]Param{req("effect_type", KindString)}},
	{ActionAddBorder, CategoryEffects, "add a border",
		[]Param{opt("border_width", KindInt), opt("color", KindColor)}},

	{ActionListActions, CategorySystem, "list the available actions", nil},
	{ActionPing, CategorySystem, "health check", nil},
}

func LookupAction(name string) (ActionSpec, bool) {
	for _, spec := range Catalog {
		if spec.Name == name {
			return spec, true
		}
	}
	return ActionSpec{}, false
}

// Describe renders the catalog in the list_actions response shape: category -> action -> {params, desc}.
// Optional params carry a trailing "?".
func Describe() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, spec := range Catalog {
		params := make([]string, 0, len(spec.Params))
		for _, p := range spec.Params {
			name := p.Name
			if !p.Required {
				name += "?"
			}
			params = append(params, name)
		}

		if out[spec.Category] == nil {
			out[spec.Category] = make(map[string]any)
		}
		out[spec.Category][spec.Name] = map[string]any{"params": params, "desc": spec.Description}
	}
	return out
}

// Usage renders a one-line usage string such as "/rotate <angle> [expand] [fill_color]".
func (s ActionSpec) Usage() string {
	var b strings.Builder
	b.WriteString("/" + s.Name)
	for _, p := range s.Params {
		if p.Required {
			fmt.Fprintf(&b, " <%s>", p.Name)
		} else {
			fmt.Fprintf(&b, " [%s]", p.Name)
		}
	}
	return b.String()
}

// ParseArgs maps positional arguments onto the action's parameters in declaration order. Omitted optional
// parameters are left out so the worker applies its defaults. Colors are written as "r,g,b".
func (s ActionSpec) ParseArgs(args []string) (Envelope, error) {
	if len(args) > len(s.Params) {
		return nil, fmt.Errorf("too many arguments, usage: %s", s.Usage())
	}

	request := NewRequest(s.Name)
	for i, p := range s.Params {
		if i >= len(args) {
			if p.Required {
				return nil, fmt.Errorf("missing %s, usage: %s", p.Name, s.Usage())
			}
			continue
		}

		v, err := parseValue(p.Kind, args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", p.Name, err)
		}
		request[p.Name] = v
	}

	return request, nil
}

func parseValue(kind ParamKind, raw string) (any, error) {
	switch kind {
	case KindNumber:
		return strconv.ParseFloat(raw, 64)
	case KindInt:
		return strconv.Atoi(raw)
	case KindBool:
		return strconv.ParseBool(raw)
	case KindColor:
		parts := strings.Split(raw, ",")
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("expected r,g,b but got %q", raw)
		}
		values := make([]int, len(parts))
		for i, part := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	default:
		return raw, nil
	}
}

// ActionNames returns the catalog's action names sorted alphabetically.
func ActionNames() []string {
	names := make([]string, 0, len(Catalog))
	for _, spec := range Catalog {
		names = append(names, spec.Name)
	}
	sort.Strings(names)
	return names
}
