package world

import (
	"sync"

	"fxcore/internal/config"
	"fxcore/internal/particles"
)

// ProjectileParams is the trajectory of one weapon's projectiles.
type ProjectileParams struct {
	Curvature float64 `json:"curvature"`
	Speed     float64 `json:"speed"`
}

// Tuning holds the live server tuning. The server may change it at any time,
// so readers take it per frame rather than caching it.
type Tuning struct {
	mu     sync.RWMutex
	params [particles.NumWeapons]ProjectileParams
}

// NewTuning creates tuning from configuration. Weapons without projectiles
// keep zero parameters.
func NewTuning(cfg config.TuningConfig) *Tuning {
	t := &Tuning{}
	t.params[particles.WeaponGun] = ProjectileParams{cfg.GunCurvature, cfg.GunSpeed}
	t.params[particles.WeaponShotgun] = ProjectileParams{cfg.ShotgunCurvature, cfg.ShotgunSpeed}
	t.params[particles.WeaponGrenade] = ProjectileParams{cfg.GrenadeCurvature, cfg.GrenadeSpeed}
	return t
}

// ProjectileParams implements particles.Tuning.
func (t *Tuning) ProjectileParams(w particles.Weapon) (float64, float64) {
	if w < 0 || w >= particles.NumWeapons {
		return 0, 0
	}
	t.mu.RLock()
	p := t.params[w]
	t.mu.RUnlock()
	return p.Curvature, p.Speed
}

// Set replaces the parameters of weapon w.
func (t *Tuning) Set(w particles.Weapon, p ProjectileParams) {
	if w < 0 || w >= particles.NumWeapons {
		return
	}
	t.mu.Lock()
	t.params[w] = p
	t.mu.Unlock()
}

// All returns a copy of every weapon's parameters keyed by weapon name.
func (t *Tuning) All() map[string]ProjectileParams {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]ProjectileParams, len(t.params))
	for w := particles.Weapon(0); w < particles.NumWeapons; w++ {
		out[w.String()] = t.params[w]
	}
	return out
}
