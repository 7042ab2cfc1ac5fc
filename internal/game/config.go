package game

import (
	"fmt"

	"github.com/samdwyer/squadcore/internal/config"
	"github.com/samdwyer/squadcore/internal/entity"
	"github.com/samdwyer/squadcore/internal/formation"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

// BuildSquads creates both squads named in cfg. Unknown ids and squads
// larger than their formation are configuration errors.
func BuildSquads(cfg *config.Config, catalog *gamedata.Catalog) (players, bosses *formation.Squad, err error) {
	if err := cfg.CheckRoster(catalog); err != nil {
		return nil, nil, err
	}
	players, err = buildSquad("players", cfg.Players, catalog)
	if err != nil {
		return nil, nil, err
	}
	bosses, err = buildSquad("bosses", cfg.Bosses, catalog)
	if err != nil {
		return nil, nil, err
	}
	return players, bosses, nil
}

func buildSquad(name string, sc config.SquadConfig, catalog *gamedata.Catalog) (*formation.Squad, error) {
	arch, err := formation.ArchetypeFromDef(catalog.Formations.GetByID(sc.Formation))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	central := entity.NewUnitFromDef(catalog.Units.GetByID(sc.Central))
	peripherals := make([]*entity.Unit, 0, len(sc.Peripherals))
	for _, id := range sc.Peripherals {
		peripherals = append(peripherals, entity.NewUnitFromDef(catalog.Units.GetByID(id)))
	}
	squad, err := formation.NewSquad(name, arch, central, peripherals...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return squad, nil
}
