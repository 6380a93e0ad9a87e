//go:build darwin

package idle

// defaultProvider picks ioreg on macOS.
func defaultProvider() (Provider, error) {
	return ProviderIOReg, nil
}
