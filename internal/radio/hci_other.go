//go:build !linux

package radio

// OpenHCI is only available on linux.
func OpenHCI(index int) (*HCIAdvertiser, error) {
	return nil, ErrUnsupported
}
