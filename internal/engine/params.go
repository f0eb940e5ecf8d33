package engine

import "github.com/talgya/kinship-viz/internal/geom"

// Params holds every tunable of the simulation. All lengths are world units,
// all rates are per second.
type Params struct {
	// World.
	WorldWidth  float64
	WorldHeight float64
	WorldMargin float64 // cultures without a parent stay this far from the world edge

	// Polygon sizing from particle counts.
	SizeBase        float64
	SizePerParticle float64

	// Culture layout forces.
	BrownianSpeedThreshold float64 // below this speed no new jitter is injected
	BrownianImpulse        float64
	HomeRadius             float64 // inside this radius the weak spring applies
	HomeSpringFar          float64
	HomeSpringNear         float64
	CenterPull             float64
	CollisionPadding       float64
	CollisionRepulsion     float64
	MaxCultureSpeed        float64
	CultureDamping         float64
	SnapSpeed              float64 // below this speed velocity snaps to zero
	ParentMargin           float64 // gap kept between a child and its parent's rim
	ContactDamping         float64

	// Particle boundary containment.
	Boundary geom.BoundaryParams

	// Particle rendering.
	ParticleSizeMin float64
	ParticleSizeMax float64

	// Interior particle motion.
	ParticleBrownian float64
	RadialInner      float64 // fraction of the apothem below which particles are pushed out
	RadialOuter      float64 // fraction of the apothem above which particles are pulled in
	RadialPush       float64
	RadialPull       float64
	ParticleDamping  float64

	// Border particle motion.
	BorderDrift      float64 // edge fraction traversed per second
	BorderFloatAmp   float64
	BorderFloatFreq  float64
	BorderSwapChance float64 // per-second chance to trade places with an interior particle

	// Flow episodes.
	MaxActivationDelay    float64
	FlowTransition        float64 // seconds to blend from contained into directed flow
	FlowSteer             float64
	FlowDispersion        float64
	FlowTurbulence        float64
	FlowDamping           float64
	FlowMaxSpeed          float64
	ArrivalRadius         float64
	FlowFraction          float64 // fraction of the focused pool that flows out
	ExchangeRatio         float64 // fraction of outbound flow that carries an exchange
	ReverseFraction       float64 // fraction of each kin pool flowing back
	ReverseExchangeRatio  float64
	ReverseExchangePerKin bool // divide the reverse exchange ratio across kin

	// Scale/opacity/position relaxation.
	ScaleRelax   float64
	OpacityRelax float64
	MoveRelax    float64

	// Focus scenario presentation.
	FocusScale    float64
	FocusOpacity  float64
	KinScale      float64
	KinOpacity    float64
	DimScale      float64
	DimOpacity    float64
	RestScale     float64
	RestOpacity   float64
	FocusLayer    int
	KinLayer      int
	DimLayer      int
	RestLayer     int
	KinRingRadius float64

	// Synthetic groups.
	GroupBaseSize        float64
	GroupSizeIncrement   float64
	GroupPadding         float64
	GroupPlaceAttempts   int
	GroupSeparationIters int
	GroupParticleCount   int
	GroupChildMargin     float64
	HiddenOpacity        float64

	// Camera.
	MinZoom       float64
	MaxZoom       float64
	CameraRate    float64
	CameraEpsilon float64
	FocusZoom     float64

	// Exit sequence phase durations, seconds.
	ExitShrink    float64
	ExitFadeOut   float64
	ExitRandomize float64
	ExitFadeIn    float64
}

// DefaultParams returns the tuning used in production.
func DefaultParams() Params {
	return Params{
		WorldWidth:  4000,
		WorldHeight: 2400,
		WorldMargin: 80,

		SizeBase:        64,
		SizePerParticle: 6.5,

		BrownianSpeedThreshold: 0.8,
		BrownianImpulse:        26,
		HomeRadius:             160,
		HomeSpringFar:          2.4,
		HomeSpringNear:         0.35,
		CenterPull:             0.05,
		CollisionPadding:       24,
		CollisionRepulsion:     9,
		MaxCultureSpeed:        90,
		CultureDamping:         2.2,
		SnapSpeed:              0.5,
		ParentMargin:           12,
		ContactDamping:         0.6,

		Boundary: geom.BoundaryParams{
			SoftWidth:   10,
			HardMargin:  4,
			SoftDamping: 0.7,
			Restitution: 0.55,
		},

		ParticleSizeMin: 1.6,
		ParticleSizeMax: 3.2,

		ParticleBrownian: 22,
		RadialInner:      0.25,
		RadialOuter:      0.8,
		RadialPush:       8,
		RadialPull:       14,
		ParticleDamping:  1.4,

		BorderDrift:      0.06,
		BorderFloatAmp:   2.2,
		BorderFloatFreq:  1.3,
		BorderSwapChance: 0.015,

		MaxActivationDelay:    2.0,
		FlowTransition:        0.8,
		FlowSteer:             2.8,
		FlowDispersion:        34,
		FlowTurbulence:        46,
		FlowDamping:           0.9,
		FlowMaxSpeed:          220,
		ArrivalRadius:         16,
		FlowFraction:          0.5,
		ExchangeRatio:         0.2,
		ReverseFraction:       0.1,
		ReverseExchangeRatio:  0.1,
		ReverseExchangePerKin: false,

		ScaleRelax:   3.0,
		OpacityRelax: 3.0,
		MoveRelax:    2.4,

		FocusScale:    2.0,
		FocusOpacity:  1.0,
		KinScale:      1.2,
		KinOpacity:    0.8,
		DimScale:      0.4,
		DimOpacity:    0.1,
		RestScale:     1.0,
		RestOpacity:   0.5,
		FocusLayer:    3,
		KinLayer:      2,
		DimLayer:      0,
		RestLayer:     0,
		KinRingRadius: 420,

		GroupBaseSize:        140,
		GroupSizeIncrement:   36,
		GroupPadding:         30,
		GroupPlaceAttempts:   24,
		GroupSeparationIters: 4,
		GroupParticleCount:   40,
		GroupChildMargin:     10,
		HiddenOpacity:        0,

		MinZoom:       0.4,
		MaxZoom:       3.0,
		CameraRate:    4.0,
		CameraEpsilon: 0.5,
		FocusZoom:     1.2,

		ExitShrink:    1.2,
		ExitFadeOut:   1.0,
		ExitRandomize: 0.2,
		ExitFadeIn:    1.6,
	}
}
