package fakepush

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

var zones = []uint32{2, 4, 6, 8, 344}

type mockPlayer struct {
	characterID uint64
	world       census.World
	faction     uint8
	outfitID    uint64
	battleRank  uint8
	loadoutID   uint32
}

// weights decide how often each event name is published per tick.
var weights = []struct {
	name   events.Name
	weight int
}{
	{events.NameGainExperience, 40},
	{events.NameDeath, 20},
	{events.NameVehicleDestroy, 6},
	{events.NameItemAdded, 4},
	{events.NamePlayerLogin, 4},
	{events.NamePlayerLogout, 3},
	{events.NameAchievementEarned, 3},
	{events.NamePlayerFacilityCapture, 3},
	{events.NamePlayerFacilityDefend, 3},
	{events.NameSkillAdded, 2},
	{events.NameBattleRankUp, 2},
	{events.NameFacilityControl, 2},
	{events.NameMetagameEvent, 1},
	{events.NameContinentLock, 1},
	{events.NameContinentUnlock, 1},
}

// Generator publishes plausible random events on a Server.
type Generator struct {
	server   *Server
	interval time.Duration
	perTick  int

	mu      sync.Mutex
	rng     *rand.Rand
	players []mockPlayer
}

// NewGenerator returns a generator publishing perTick events every interval.
func NewGenerator(server *Server, interval time.Duration, perTick int, seed int64) *Generator {
	g := &Generator{
		server:   server,
		interval: interval,
		perTick:  perTick,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < 48; i++ {
		g.players = append(g.players, g.newPlayer())
	}
	return g
}

// Start runs the generator until ctx is done.
func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Step()
		}
	}
}

// Step publishes one tick's worth of events and returns their names.
func (g *Generator) Step() []events.Name {
	names := make([]events.Name, 0, g.perTick)
	for i := 0; i < g.perTick; i++ {
		name, payload := g.Next()
		g.server.Publish(name, payload)
		names = append(names, name)
	}
	return names
}

// Next picks an event name and builds a payload for it.
func (g *Generator) Next() (events.Name, map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	name := g.pick()
	return name, g.payload(name)
}

// Payload builds a payload for name that decodes without error.
func (g *Generator) Payload(name events.Name) map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payload(name)
}

func (g *Generator) pick() events.Name {
	total := 0
	for _, w := range weights {
		total += w.weight
	}
	n := g.rng.Intn(total)
	for _, w := range weights {
		if n < w.weight {
			return w.name
		}
		n -= w.weight
	}
	return events.NameGainExperience
}

func (g *Generator) newPlayer() mockPlayer {
	worlds := []census.World{census.Connery, census.Miller, census.Cobalt, census.Emerald, census.SolTech}
	return mockPlayer{
		characterID: 5428000000000000000 + uint64(g.rng.Int63n(1_000_000_000)),
		world:       worlds[g.rng.Intn(len(worlds))],
		faction:     uint8(1 + g.rng.Intn(3)),
		outfitID:    37500000000000000 + uint64(g.rng.Int63n(1_000_000)),
		battleRank:  uint8(1 + g.rng.Intn(119)),
		loadoutID:   uint32(1 + g.rng.Intn(32)),
	}
}

func (g *Generator) player() *mockPlayer {
	return &g.players[g.rng.Intn(len(g.players))]
}

// opponent returns a player on the same world, if one exists.
func (g *Generator) opponent(p *mockPlayer) *mockPlayer {
	for i := 0; i < 8; i++ {
		o := g.player()
		if o != p && o.world == p.world {
			return o
		}
	}
	return g.player()
}

func (g *Generator) payload(name events.Name) map[string]string {
	p := g.player()
	zone := zones[g.rng.Intn(len(zones))]
	ts := time.Now().Unix()

	base := map[string]string{
		"timestamp": strconv.FormatInt(ts, 10),
		"world_id":  p.world.ID(),
		"zone_id":   u32(zone),
	}
	character := func() {
		base["character_id"] = u64(p.characterID)
	}

	switch name {
	case events.NamePlayerLogin, events.NamePlayerLogout:
		character()
		delete(base, "zone_id")

	case events.NameContinentLock, events.NameContinentUnlock:
		base["triggering_faction"] = u8(p.faction)
		base["previous_faction"] = u8(uint8(1 + g.rng.Intn(3)))
		base["vs_population"] = u32(uint32(g.rng.Intn(100)))
		base["nc_population"] = u32(uint32(g.rng.Intn(100)))
		base["tr_population"] = u32(uint32(g.rng.Intn(100)))
		base["metagame_event_id"] = u32(uint32(147 + g.rng.Intn(10)))
		base["event_type"] = u32(uint32(g.rng.Intn(3)))

	case events.NameFacilityControl:
		base["duration_held"] = u64(uint64(g.rng.Intn(7200)))
		base["facility_id"] = u32(uint32(200000 + g.rng.Intn(100000)))
		base["new_faction_id"] = u8(p.faction)
		base["old_faction_id"] = u8(uint8(1 + g.rng.Intn(3)))
		base["outfit_id"] = u64(p.outfitID)

	case events.NameMetagameEvent:
		nc, tr := g.rng.Float64()*50, g.rng.Float64()*50
		base["experience_bonus"] = strconv.FormatFloat(float64(g.rng.Intn(4))*25, 'f', 6, 64)
		base["faction_nc"] = strconv.FormatFloat(nc, 'f', 6, 64)
		base["faction_tr"] = strconv.FormatFloat(tr, 'f', 6, 64)
		base["faction_vs"] = strconv.FormatFloat(100-nc-tr, 'f', 6, 64)
		base["instance_id"] = u32(uint32(g.rng.Intn(60000)))
		base["metagame_event_id"] = u32(uint32(147 + g.rng.Intn(10)))
		state := []string{"started", "restarted", "cancelled", "ended", "xp bonus changed"}
		idx := g.rng.Intn(len(state))
		base["metagame_event_state"] = u32(uint32(135 + idx))
		base["metagame_event_state_name"] = state[idx]

	case events.NameAchievementEarned:
		character()
		base["achievement_id"] = u32(uint32(g.rng.Intn(100000)))

	case events.NameBattleRankUp:
		character()
		if p.battleRank < 120 {
			p.battleRank++
		}
		base["battle_rank"] = u8(p.battleRank)

	case events.NameDeath:
		character()
		o := g.opponent(p)
		base["attacker_character_id"] = u64(o.characterID)
		base["attacker_fire_mode_id"] = u32(uint32(g.rng.Intn(90000)))
		base["attacker_loadout_id"] = u32(o.loadoutID)
		base["attacker_vehicle_id"] = "0"
		base["attacker_weapon_id"] = u32(uint32(g.rng.Intn(900000)))
		base["character_loadout_id"] = u32(p.loadoutID)
		base["is_critical"] = "0"
		base["is_headshot"] = boolFlag(g.rng.Intn(4) == 0)

	case events.NameItemAdded:
		character()
		base["context"] = "GuildBankWithdrawal"
		base["item_count"] = u32(uint32(1 + g.rng.Intn(5)))
		base["item_id"] = u32(uint32(g.rng.Intn(900000)))

	case events.NameSkillAdded:
		character()
		base["skill_id"] = u32(uint32(g.rng.Intn(20000)))

	case events.NameVehicleDestroy:
		character()
		o := g.opponent(p)
		base["attacker_character_id"] = u64(o.characterID)
		base["attacker_loadout_id"] = u32(o.loadoutID)
		base["attacker_vehicle_id"] = u32(uint32(g.rng.Intn(15)))
		base["attacker_weapon_id"] = u32(uint32(g.rng.Intn(900000)))
		base["facility_id"] = "0"
		base["faction_id"] = u8(p.faction)
		base["vehicle_id"] = u32(uint32(1 + g.rng.Intn(15)))

	case events.NameGainExperience:
		character()
		base["amount"] = u32(uint32(10 + g.rng.Intn(500)))
		base["experience_id"] = u32(uint32(1 + g.rng.Intn(700)))
		base["loadout_id"] = u32(p.loadoutID)
		base["other_id"] = u64(g.opponent(p).characterID)

	case events.NamePlayerFacilityCapture, events.NamePlayerFacilityDefend:
		character()
		base["facility_id"] = u32(uint32(200000 + g.rng.Intn(100000)))
		base["outfit_id"] = u64(p.outfitID)
	}
	return base
}

func u8(v uint8) string { return strconv.FormatUint(uint64(v), 10) }
func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
func u64(v uint64) string { return strconv.FormatUint(v, 10) }
func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
