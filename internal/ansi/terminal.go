package ansi

import "github.com/muesli/termenv"

// Terminal holds the properties queried once at startup. The default
// foreground and background live behind ColorDefault in State; what the
// rest of the viewer needs to know is whether the background is dark,
// which decides how highlight colors compose with the ambient color.
type Terminal struct {
	DarkBackground bool
}

// DetectTerminal queries the running terminal.
func DetectTerminal() Terminal {
	return Terminal{DarkBackground: termenv.HasDarkBackground()}
}
