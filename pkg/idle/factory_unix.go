//go:build !darwin && !windows && !plan9 && !js && !wasip1

package idle

// defaultProvider picks the X screensaver backend on X11 platforms.
func defaultProvider() (Provider, error) {
	return ProviderX11, nil
}
