package models

// Themes the public site understands.
const (
	ThemeBlue  = "blue"
	ThemeWhite = "white"
)

// Settings is the site-wide singleton: default theme plus optional
// branding asset paths.
type Settings struct {
	ThemeDefault string `json:"theme_default"`
	LogoPath     string `json:"logo_path"`
	HeroBgPath   string `json:"hero_bg_path"`
}

// DefaultSettings returns the settings used when settings.json is absent.
func DefaultSettings() Settings {
	return Settings{ThemeDefault: ThemeBlue}
}

// SettingsPatch is a partial settings update; nil fields are left as-is.
type SettingsPatch struct {
	ThemeDefault *string `json:"theme_default,omitempty"`
	LogoPath     *string `json:"logo_path,omitempty"`
	HeroBgPath   *string `json:"hero_bg_path,omitempty"`
}
