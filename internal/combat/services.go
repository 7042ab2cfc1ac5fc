package combat

// External presentation services. The resolver fires these and never waits
// for them to finish.

// EffectHandle is a spawned visual effect. The owner disposes it when the
// caster's action ends.
type EffectHandle interface {
	Dispose()
}

// EffectSpawner creates a visual effect anchored at a combatant.
type EffectSpawner interface {
	Spawn(cue string, anchor Combatant) EffectHandle
}

// AudioSource plays a clip once.
type AudioSource interface {
	PlayOneShot(clip string)
}

// AudioPool hands out an idle audio source, or nil if none is free.
type AudioPool interface {
	FetchAvailableSource() AudioSource
}

// Roller draws uniform values in [0, 1). *rand.Rand satisfies it.
type Roller interface {
	Float64() float64
}
