package orbital

import (
	"math"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

// GMSun is the heliocentric gravitational parameter in AU³/day²
const GMSun = 2.9591220828559115e-4

// GMEarthMoon is the Earth+Moon gravitational parameter in AU³/day²
const GMEarthMoon = 8.997011390199871e-10

// OrbitalElements represents Keplerian orbital elements
type OrbitalElements struct {
	SemiMajorAxis          float64 // a - Semi-major axis (AU)
	Eccentricity           float64 // e - Eccentricity (0-1)
	Inclination            float64 // i - Inclination (radians)
	LongitudeAscendingNode float64 // Ω - Longitude of ascending node (radians)
	ArgumentPerihelion     float64 // ω - Argument of perihelion (radians)
	MeanAnomaly            float64 // M - Mean anomaly at epoch (radians)
	Epoch                  float64 // JD - Julian date of epoch
}

// FromMeanLongitudes builds elements from the classic tabulation
// (a, e, i, L, ϖ, Ω with angles in degrees)
func FromMeanLongitudes(a, e, iDeg, lDeg, periDeg, nodeDeg, epoch float64) OrbitalElements {
	return OrbitalElements{
		SemiMajorAxis:          a,
		Eccentricity:           e,
		Inclination:            astromath.Radians(iDeg),
		LongitudeAscendingNode: astromath.Radians(nodeDeg),
		ArgumentPerihelion:     astromath.Radians(periDeg - nodeDeg),
		MeanAnomaly:            astromath.Radians(astromath.WrapDegrees(lDeg - periDeg)),
		Epoch:                  epoch,
	}
}

// At propagates the mean anomaly to jd assuming two-body motion
func (oe OrbitalElements) At(jd, mu float64) OrbitalElements {
	n := math.Sqrt(mu / math.Pow(oe.SemiMajorAxis, 3))
	out := oe
	out.MeanAnomaly = math.Mod(oe.MeanAnomaly+n*(jd-oe.Epoch), 2*math.Pi)
	if out.MeanAnomaly < 0 {
		out.MeanAnomaly += 2 * math.Pi
	}
	out.Epoch = jd
	return out
}

// ToCartesian converts orbital elements to cartesian position and velocity
// mu is the gravitational parameter in AU³/day²
func (oe OrbitalElements) ToCartesian(mu float64) (pos, vel astromath.Vector3) {
	E := oe.solveKeplersEquation()
	cosE := math.Cos(E)

	nu := 2.0 * math.Atan2(
		math.Sqrt(1+oe.Eccentricity)*math.Sin(E/2),
		math.Sqrt(1-oe.Eccentricity)*math.Cos(E/2),
	)

	// Distance from focus
	r := oe.SemiMajorAxis * (1 - oe.Eccentricity*cosE)

	// Position in orbital plane
	x := r * math.Cos(nu)
	y := r * math.Sin(nu)

	// Velocity in orbital plane
	rootOneMinusE2 := math.Sqrt(1 - oe.Eccentricity*oe.Eccentricity)
	factor := math.Sqrt(mu/oe.SemiMajorAxis) / (1 - oe.Eccentricity*cosE)
	vx := -factor * math.Sin(E)
	vy := factor * rootOneMinusE2 * cosE

	// Perifocal to ecliptic
	cosOmega := math.Cos(oe.LongitudeAscendingNode)
	sinOmega := math.Sin(oe.LongitudeAscendingNode)
	cosI := math.Cos(oe.Inclination)
	sinI := math.Sin(oe.Inclination)
	cosW := math.Cos(oe.ArgumentPerihelion)
	sinW := math.Sin(oe.ArgumentPerihelion)

	r11 := cosOmega*cosW - sinOmega*sinW*cosI
	r12 := -cosOmega*sinW - sinOmega*cosW*cosI
	r21 := sinOmega*cosW + cosOmega*sinW*cosI
	r22 := -sinOmega*sinW + cosOmega*cosW*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	pos = astromath.Vector3{X: r11*x + r12*y, Y: r21*x + r22*y, Z: r31*x + r32*y}
	vel = astromath.Vector3{X: r11*vx + r12*vy, Y: r21*vx + r22*vy, Z: r31*vx + r32*vy}
	return pos, vel
}

// solveKeplersEquation solves Kepler's equation M = E - e*sin(E) for E
func (oe OrbitalElements) solveKeplersEquation() float64 {
	// Newton-Raphson iteration
	E := oe.MeanAnomaly
	if oe.Eccentricity > 0.8 {
		E = math.Pi
	}

	tolerance := 1e-10
	maxIterations := 50

	for i := 0; i < maxIterations; i++ {
		f := E - oe.Eccentricity*math.Sin(E) - oe.MeanAnomaly
		fp := 1 - oe.Eccentricity*math.Cos(E)

		deltaE := f / fp
		E -= deltaE

		if math.Abs(deltaE) < tolerance {
			break
		}
	}

	return E
}

// GetPerihelion returns the perihelion distance
func (oe OrbitalElements) GetPerihelion() float64 {
	return oe.SemiMajorAxis * (1 - oe.Eccentricity)
}

// GetAphelion returns the aphelion distance
func (oe OrbitalElements) GetAphelion() float64 {
	return oe.SemiMajorAxis * (1 + oe.Eccentricity)
}

// GetOrbitalPeriod returns the orbital period in days
func (oe OrbitalElements) GetOrbitalPeriod(mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(math.Pow(oe.SemiMajorAxis, 3)/mu)
}

// CartesianToOrbital converts position and velocity vectors to orbital elements
func CartesianToOrbital(pos, vel astromath.Vector3, mu float64) OrbitalElements {
	// Specific angular momentum
	h := pos.Cross(vel)

	r := pos.Magnitude()
	v := vel.Magnitude()
	eVec := vel.Cross(h).Scale(1.0 / mu).Sub(pos.Scale(1.0 / r))
	e := eVec.Magnitude()

	a := 1.0 / (2.0/r - v*v/mu)
	i := math.Acos(h.Z / h.Magnitude())

	n := astromath.Vector3{Z: 1}.Cross(h)
	Omega := 0.0
	if n.Magnitude() > 1e-10 {
		Omega = math.Atan2(n.Y, n.X)
		if Omega < 0 {
			Omega += 2 * math.Pi
		}
	}

	omega := 0.0
	if n.Magnitude() > 1e-10 && e > 1e-10 {
		cosOmega := n.Dot(eVec) / (n.Magnitude() * e)
		if math.Abs(cosOmega) <= 1.0 {
			omega = math.Acos(cosOmega)
			if eVec.Z < 0 {
				omega = 2*math.Pi - omega
			}
		}
	}

	E := 0.0
	if e > 1e-10 {
		cosE := (1 - r/a) / e
		if math.Abs(cosE) <= 1.0 {
			E = math.Acos(cosE)
			if pos.Dot(vel) < 0 {
				E = 2*math.Pi - E
			}
		}
	}
	M := E - e*math.Sin(E)

	return OrbitalElements{
		SemiMajorAxis:          a,
		Eccentricity:           e,
		Inclination:            i,
		LongitudeAscendingNode: Omega,
		ArgumentPerihelion:     omega,
		MeanAnomaly:            M,
	}
}
