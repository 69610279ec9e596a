package body

// Well-known Horizons catalog ids
const (
	SunID        = "10"
	MercuryID    = "199"
	VenusID      = "299"
	EarthID      = "399"
	MoonID       = "301"
	MarsID       = "499"
	JupiterID    = "599"
	SaturnID     = "699"
	StattmayerID = "3398"
)

// DefaultBodies returns the inner solar system plus Jupiter, Saturn and a comet
func DefaultBodies() []Body {
	return []Body{
		{ID: MercuryID, Name: "Mercury", Color: RGB(160, 82, 45), RotationPeriod: 58.646},
		{ID: VenusID, Name: "Venus", Color: RGB(222, 184, 135), RotationPeriod: -243.025, AxialTilt: 177.4},
		{ID: EarthID, Name: "Earth", Color: RGB(65, 105, 225), RotationPeriod: 0.99727, AxialTilt: 23.44},
		{ID: MoonID, Name: "Moon", Color: RGB(204, 204, 204), Parent: EarthID, RotationPeriod: 27.3217, AxialTilt: 6.68},
		{ID: MarsID, Name: "Mars", Color: RGB(205, 92, 92), RotationPeriod: 1.02596, AxialTilt: 25.19},
		{ID: JupiterID, Name: "Jupiter", Color: RGB(218, 165, 32), RotationPeriod: 0.41354, AxialTilt: 3.13},
		{
			ID: SaturnID, Name: "Saturn", Color: RGB(244, 164, 96), RotationPeriod: 0.44401, AxialTilt: 26.73,
			Ring: &Ring{Inner: 1.24, Outer: 2.27, Color: RGB(210, 190, 150)},
		},
		{ID: StattmayerID, Name: "Stattmayer", Color: RGB(0, 255, 255), Linear: true},
	}
}

// DefaultGroups mirrors the planet systems used for shadow casting
func DefaultGroups() []Group {
	return []Group{
		{Name: "mercurySystem", Members: []string{MercuryID}},
		{Name: "venusSystem", Members: []string{VenusID}},
		{Name: "earthSystem", Members: []string{EarthID, MoonID}},
		{Name: "marsSystem", Members: []string{MarsID}},
		{Name: "jupiterSystem", Members: []string{JupiterID}},
		{Name: "saturnSystem", Members: []string{SaturnID}},
		{Name: "cometSystem", Members: []string{StattmayerID}},
	}
}
