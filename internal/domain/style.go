package domain

import "math/rand"

// Style pairs a catalog name with the descriptive fragment used to steer
// image generation. The catalog is fixed and immutable.
type Style struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// predefinedStyles is the full visualization style catalog.
var predefinedStyles = []Style{
	{
		Name:        "anime",
		Description: "anime style, vibrant colors, soft lighting, detailed, 4k render",
	},
	{
		Name: "realistic",
		Description: "ultra realistic, cinematic lighting, shallow depth of field, " +
			"photo style, HDR, 8k",
	},
	{
		Name: "cartoon",
		Description: "cartoon style, exaggerated expressions, colorful, flat shading, " +
			"digital illustration",
	},
	{
		Name: "cyberpunk",
		Description: "cyberpunk, neon lights, futuristic atmosphere, dark streets, " +
			"glowing reflections",
	},
	{
		Name: "fantasy",
		Description: "fantasy art, mystical lighting, ethereal glow, highly detailed, " +
			"magical realism",
	},
	{
		Name: "oil_painting",
		Description: "oil painting, baroque composition, dramatic shadows, rich colors, " +
			"textured brushstrokes",
	},
	{
		Name:        "watercolor",
		Description: "watercolor art, pastel tones, dreamy mood, soft contrast",
	},
	{
		Name:        "pixel_art",
		Description: "pixel art, retro video game vibe, limited palette, crisp edges",
	},
}

// Styles returns a copy of the style catalog.
func Styles() []Style {
	out := make([]Style, len(predefinedStyles))
	copy(out, predefinedStyles)
	return out
}

// StyleByName looks up a catalog style by name. The second return value
// reports whether the name is known.
func StyleByName(name string) (Style, bool) {
	for _, s := range predefinedStyles {
		if s.Name == name {
			return s, true
		}
	}
	return Style{}, false
}

// RandomStyle returns a uniformly-selected catalog style.
func RandomStyle() Style {
	return predefinedStyles[rand.Intn(len(predefinedStyles))]
}
