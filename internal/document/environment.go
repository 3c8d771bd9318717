package document

// Environment distinguishes the restricted homologation environment from
// live production (tpAmb).
type Environment int

const (
	// Production is the live environment (tpAmb 1).
	Production Environment = 1
	// Homologation is the restricted test environment (tpAmb 2).
	Homologation Environment = 2
)

// EnvironmentFromFlag maps the configuration flag to an Environment.
func EnvironmentFromFlag(homologation bool) Environment {
	if homologation {
		return Homologation
	}
	return Production
}

// Code returns the tpAmb value.
func (e Environment) Code() string {
	if e == Homologation {
		return "2"
	}
	return "1"
}

// Label returns the human-readable environment name.
func (e Environment) Label() string {
	if e == Homologation {
		return "Homologação"
	}
	return "Produção"
}

func (e Environment) String() string {
	if e == Homologation {
		return "homologation"
	}
	return "production"
}
