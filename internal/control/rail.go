package control

// RailStatus reports which limit an output was pinned against.
type RailStatus struct {
	Lower bool
	Upper bool
}

func (r RailStatus) Any() bool { return r.Lower || r.Upper }

func (r RailStatus) String() string {
	switch {
	case r.Lower && r.Upper:
		return "both"
	case r.Lower:
		return "lower"
	case r.Upper:
		return "upper"
	default:
		return "none"
	}
}
