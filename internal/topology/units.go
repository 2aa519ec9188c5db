package topology

// Physical constants in MD units (nm, ps, kJ/mol, e, K).
const (
	// Boltz is the Boltzmann constant in kJ/(mol K).
	Boltz = 8.314462618e-3

	// FourPiEps0 is 1/(4 pi eps0) in kJ mol^-1 nm e^-2, used to derive the
	// harmonic force constant of an isotropic polarization bond from the
	// shell charge and polarizability.
	FourPiEps0 = 138.935458
)
