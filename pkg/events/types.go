package events

// Event is one decoded push event. The concrete type is one of the structs
// in this file; switch on it, or on EventName, to handle a specific kind.
type Event interface {
	EventName() Name
}

// ServiceStateChange reports a world endpoint going on or offline.
type ServiceStateChange struct {
	Detail string `json:"detail"`
	Online bool   `json:"online"`
}

// ConnectionStateChange reports the push connection state.
type ConnectionStateChange struct {
	Connected bool `json:"connected"`
}

type PlayerLogin struct {
	CharacterID uint64 `json:"character_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
}

type PlayerLogout struct {
	CharacterID uint64 `json:"character_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
}

// ContinentLock is sent when a faction locks a continent.
type ContinentLock struct {
	Timestamp         uint64 `json:"timestamp"`
	WorldID           uint8  `json:"world_id"`
	ZoneID            uint32 `json:"zone_id"`
	TriggeringFaction uint8  `json:"triggering_faction"`
	PreviousFaction   uint8  `json:"previous_faction"`
	VSPopulation      uint32 `json:"vs_population"`
	NCPopulation      uint32 `json:"nc_population"`
	TRPopulation      uint32 `json:"tr_population"`
	MetagameEventID   uint32 `json:"metagame_event_id"`
	EventType         uint32 `json:"event_type"`
}

type ContinentUnlock struct {
	Timestamp         uint64 `json:"timestamp"`
	WorldID           uint8  `json:"world_id"`
	ZoneID            uint32 `json:"zone_id"`
	TriggeringFaction uint8  `json:"triggering_faction"`
	PreviousFaction   uint8  `json:"previous_faction"`
	VSPopulation      uint32 `json:"vs_population"`
	NCPopulation      uint32 `json:"nc_population"`
	TRPopulation      uint32 `json:"tr_population"`
	MetagameEventID   uint32 `json:"metagame_event_id"`
	EventType         uint32 `json:"event_type"`
}

// FacilityControl is sent when a facility changes hands or is defended.
type FacilityControl struct {
	DurationHeld uint64 `json:"duration_held"`
	FacilityID   uint32 `json:"facility_id"`
	NewFactionID uint8  `json:"new_faction_id"`
	OldFactionID uint8  `json:"old_faction_id"`
	OutfitID     uint64 `json:"outfit_id"`
	Timestamp    uint64 `json:"timestamp"`
	WorldID      uint8  `json:"world_id"`
	ZoneID       uint32 `json:"zone_id"`
}

// MetagameEvent is an alert state transition. Faction scores are percentages.
type MetagameEvent struct {
	ExperienceBonus        float64 `json:"experience_bonus"`
	FactionNC              float64 `json:"faction_nc"`
	FactionTR              float64 `json:"faction_tr"`
	FactionVS              float64 `json:"faction_vs"`
	InstanceID             uint32  `json:"instance_id,omitempty"`
	MetagameEventID        uint32  `json:"metagame_event_id"`
	MetagameEventState     uint32  `json:"metagame_event_state"`
	MetagameEventStateName string  `json:"metagame_event_state_name,omitempty"`
	Timestamp              uint64  `json:"timestamp"`
	WorldID                uint8   `json:"world_id"`
	ZoneID                 uint32  `json:"zone_id"`
}

type AchievementEarned struct {
	CharacterID   uint64 `json:"character_id"`
	AchievementID uint32 `json:"achievement_id"`
	Timestamp     uint64 `json:"timestamp"`
	WorldID       uint8  `json:"world_id"`
	ZoneID        uint32 `json:"zone_id"`
}

type BattleRankUp struct {
	BattleRank  uint8  `json:"battle_rank"`
	CharacterID uint64 `json:"character_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
	ZoneID      uint32 `json:"zone_id"`
}

// Death is sent for every player kill, including suicides (attacker ==
// victim) and environment deaths (attacker 0).
type Death struct {
	AttackerCharacterID uint64 `json:"attacker_character_id"`
	AttackerFireModeID  uint32 `json:"attacker_fire_mode_id"`
	AttackerLoadoutID   uint32 `json:"attacker_loadout_id"`
	AttackerVehicleID   uint32 `json:"attacker_vehicle_id"`
	AttackerWeaponID    uint32 `json:"attacker_weapon_id"`
	CharacterID         uint64 `json:"character_id"`
	CharacterLoadoutID  uint32 `json:"character_loadout_id"`
	IsCritical          bool   `json:"is_critical"`
	IsHeadshot          bool   `json:"is_headshot"`
	Timestamp           uint64 `json:"timestamp"`
	WorldID             uint8  `json:"world_id"`
	ZoneID              uint32 `json:"zone_id"`
}

type ItemAdded struct {
	CharacterID uint64 `json:"character_id"`
	Context     string `json:"context"`
	ItemCount   uint32 `json:"item_count"`
	ItemID      uint32 `json:"item_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
	ZoneID      uint32 `json:"zone_id"`
}

type SkillAdded struct {
	CharacterID uint64 `json:"character_id"`
	SkillID     uint32 `json:"skill_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
	ZoneID      uint32 `json:"zone_id"`
}

type VehicleDestroy struct {
	AttackerCharacterID uint64 `json:"attacker_character_id"`
	AttackerLoadoutID   uint32 `json:"attacker_loadout_id"`
	AttackerVehicleID   uint32 `json:"attacker_vehicle_id"`
	AttackerWeaponID    uint32 `json:"attacker_weapon_id"`
	CharacterID         uint64 `json:"character_id"`
	FacilityID          uint32 `json:"facility_id"`
	FactionID           uint8  `json:"faction_id"`
	Timestamp           uint64 `json:"timestamp"`
	VehicleID           uint32 `json:"vehicle_id"`
	WorldID             uint8  `json:"world_id"`
	ZoneID              uint32 `json:"zone_id"`
}

// GainExperience is by far the highest volume event. OtherID is the
// character, vehicle or object the experience relates to.
type GainExperience struct {
	Amount       uint32 `json:"amount"`
	CharacterID  uint64 `json:"character_id"`
	ExperienceID uint32 `json:"experience_id"`
	LoadoutID    uint32 `json:"loadout_id"`
	OtherID      uint64 `json:"other_id"`
	Timestamp    uint64 `json:"timestamp"`
	WorldID      uint8  `json:"world_id"`
	ZoneID       uint32 `json:"zone_id"`
}

type PlayerFacilityCapture struct {
	CharacterID uint64 `json:"character_id"`
	FacilityID  uint32 `json:"facility_id"`
	OutfitID    uint64 `json:"outfit_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
	ZoneID      uint32 `json:"zone_id"`
}

type PlayerFacilityDefend struct {
	CharacterID uint64 `json:"character_id"`
	FacilityID  uint32 `json:"facility_id"`
	OutfitID    uint64 `json:"outfit_id"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     uint8  `json:"world_id"`
	ZoneID      uint32 `json:"zone_id"`
}

func (ServiceStateChange) EventName() Name    { return NameServiceStateChanged }
func (ConnectionStateChange) EventName() Name { return NameConnectionStateChanged }
func (PlayerLogin) EventName() Name           { return NamePlayerLogin }
func (PlayerLogout) EventName() Name          { return NamePlayerLogout }
func (ContinentLock) EventName() Name         { return NameContinentLock }
func (ContinentUnlock) EventName() Name       { return NameContinentUnlock }
func (FacilityControl) EventName() Name       { return NameFacilityControl }
func (MetagameEvent) EventName() Name         { return NameMetagameEvent }
func (AchievementEarned) EventName() Name     { return NameAchievementEarned }
func (BattleRankUp) EventName() Name          { return NameBattleRankUp }
func (Death) EventName() Name                 { return NameDeath }
func (ItemAdded) EventName() Name             { return NameItemAdded }
func (SkillAdded) EventName() Name            { return NameSkillAdded }
func (VehicleDestroy) EventName() Name        { return NameVehicleDestroy }
func (GainExperience) EventName() Name        { return NameGainExperience }
func (PlayerFacilityCapture) EventName() Name { return NamePlayerFacilityCapture }
func (PlayerFacilityDefend) EventName() Name  { return NamePlayerFacilityDefend }
