package core

// Platform identifies a trading venue (exchange, broker, chain).
// It is a small value type compared by value and usable as a map key.
type Platform struct {
	Identifier string
}

// NewPlatform creates a platform identity after validating the identifier
func NewPlatform(identifier string) (Platform, error) {
	if identifier == "" {
		return Platform{}, ErrPlatformEmpty
	}
	return Platform{Identifier: identifier}, nil
}

func (p Platform) String() string {
	return p.Identifier
}
