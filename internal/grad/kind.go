package grad

import "fmt"

// Kind identifies an objective competing for a shared parameter group.
//
// The predefined kinds cover the losses of the domain-adaptation trainer.
// Additional kinds can be created with CustomKind; they compare by name.
type Kind struct {
	id   int
	name string
}

// Predefined objective kinds.
var (
	Domain     = Kind{id: 1, name: "l_d"}   // Adversarial domain-classifier loss.
	Covariance = Kind{id: 2, name: "l_cov"} // Covariance-alignment (cosine) loss.
	Frequency  = Kind{id: 3, name: "l_fre"} // Filter-output L1 alignment loss.
	Label      = Kind{id: 4, name: "l_y"}   // Source label-classifier loss.
	Magnitude  = Kind{id: 5, name: "l_mag"} // Alignment-head magnitude regulariser.
)

var builtinKinds = []Kind{Domain, Covariance, Frequency, Label, Magnitude}

// CustomKind returns a caller-defined objective kind.
//
// Names of predefined kinds resolve to the predefined value, so
// CustomKind("l_d") == Domain.
func CustomKind(name string) Kind {
	for _, k := range builtinKinds {
		if k.name == name {
			return k
		}
	}
	return Kind{name: name}
}

// String returns the short loss name (e.g. "l_cov").
func (k Kind) String() string {
	if k.name == "" {
		return fmt.Sprintf("kind(%d)", k.id)
	}
	return k.name
}

// IsZero reports whether k is the zero Kind.
func (k Kind) IsZero() bool {
	return k.id == 0 && k.name == ""
}
