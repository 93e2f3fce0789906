package model

var avatarGlyphs = []string{
	"🦊", "🐱", "🐶", "🐼", "🐨", "🦁",
	"🐯", "🐻", "🐰", "🦄", "🐲", "🦋",
}

var avatarColors = []string{
	"orange", "purple", "blue", "green", "yellow", "pink",
	"indigo", "teal", "red", "aqua", "gold", "violet",
}

// AvatarCount is the size of the avatar palette.
func AvatarCount() int {
	return len(avatarGlyphs)
}

// Avatar returns the glyph for an avatar index. Any integer is valid; it
// wraps into the palette.
func Avatar(index int) string {
	return avatarGlyphs[wrap(index, len(avatarGlyphs))]
}

// AvatarColor returns the color name for an avatar index, usable as a
// tview color tag.
func AvatarColor(index int) string {
	return avatarColors[wrap(index, len(avatarColors))]
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
