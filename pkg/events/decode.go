package events

import (
	"encoding/json"

	"github.com/ps2-census/census-stream/pkg/census"
)

type decoder func(f *fields) Event

var decoders = map[Name]decoder{
	NamePlayerLogin: func(f *fields) Event {
		return PlayerLogin{
			CharacterID: f.Uint64("character_id"),
			Timestamp:   f.Uint64("timestamp"),
			WorldID:     f.Uint8("world_id"),
		}
	},
	NamePlayerLogout: func(f *fields) Event {
		return PlayerLogout{
			CharacterID: f.Uint64("character_id"),
			Timestamp:   f.Uint64("timestamp"),
			WorldID:     f.Uint8("world_id"),
		}
	},
	NameContinentLock: func(f *fields) Event {
		return ContinentLock(decodeContinent(f))
	},
	NameContinentUnlock: func(f *fields) Event {
		return ContinentUnlock(decodeContinent(f))
	},
	NameFacilityControl: func(f *fields) Event {
		return FacilityControl{
			DurationHeld: f.Uint64("duration_held"),
			FacilityID:   f.Uint32("facility_id"),
			NewFactionID: f.Uint8("new_faction_id"),
			OldFactionID: f.Uint8("old_faction_id"),
			OutfitID:     f.Uint64("outfit_id"),
			Timestamp:    f.Uint64("timestamp"),
			WorldID:      f.Uint8("world_id"),
			ZoneID:       f.Uint32("zone_id"),
		}
	},
	NameMetagameEvent: func(f *fields) Event {
		return MetagameEvent{
			ExperienceBonus:        f.Float("experience_bonus"),
			FactionNC:              f.Float("faction_nc"),
			FactionTR:              f.Float("faction_tr"),
			FactionVS:              f.Float("faction_vs"),
			InstanceID:             f.OptUint32("instance_id"),
			MetagameEventID:        f.Uint32("metagame_event_id"),
			MetagameEventState:     f.Uint32("metagame_event_state"),
			MetagameEventStateName: f.OptString("metagame_event_state_name"),
			Timestamp:              f.Uint64("timestamp"),
			WorldID:                f.Uint8("world_id"),
			ZoneID:                 f.Uint32("zone_id"),
		}
	},
	NameAchievementEarned: func(f *fields) Event {
		return AchievementEarned{
			CharacterID:   f.Uint64("character_id"),
			AchievementID: f.Uint32("achievement_id"),
			Timestamp:     f.Uint64("timestamp"),
			WorldID:       f.Uint8("world_id"),
			ZoneID:        f.Uint32("zone_id"),
		}
	},
	NameBattleRankUp: func(f *fields) Event {
		return BattleRankUp{
			BattleRank:  f.Uint8("battle_rank"),
			CharacterID: f.Uint64("character_id"),
			Timestamp:   f.Uint64("timestamp"),
			WorldID:     f.Uint8("world_id"),
			ZoneID:      f.Uint32("zone_id"),
		}
	},
	NameDeath: func(f *fields) Event {
		return Death{
			AttackerCharacterID: f.Uint64("attacker_character_id"),
			AttackerFireModeID:  f.Uint32("attacker_fire_mode_id"),
			AttackerLoadoutID:   f.Uint32("attacker_loadout_id"),
			AttackerVehicleID:   f.Uint32("attacker_vehicle_id"),
			AttackerWeaponID:    f.Uint32("attacker_weapon_id"),
			CharacterID:         f.Uint64("character_id"),
			CharacterLoadoutID:  f.Uint32("character_loadout_id"),
			IsCritical:          f.Bool("is_critical"),
			IsHeadshot:          f.Bool("is_headshot"),
			Timestamp:           f.Uint64("timestamp"),
			WorldID:             f.Uint8("world_id"),
			ZoneID:              f.Uint32("zone_id"),
		}
	},
	NameItemAdded: func(f *fields) Event {
		return ItemAdded{
			CharacterID: f.Uint64("character_id"),
			Context:     f.String("context"),
			ItemCount:   f.Uint32("item_count"),
			ItemID:      f.Uint32("item_id"),
			Timestamp:   f.Uint64("timestamp"),
			WorldID:     f.Uint8("world_id"),
			ZoneID:      f.Uint32("zone_id"),
		}
	},
	NameSkillAdded: func(f *fields) Event {
		return SkillAdded{
			CharacterID: f.Uint64("character_id"),
			SkillID:     f.Uint32("skill_id"),
			Timestamp:   f.Uint64("timestamp"),
			WorldID:     f.Uint8("world_id"),
			ZoneID:      f.Uint32("zone_id"),
		}
	},
	NameVehicleDestroy: func(f *fields) Event {
		return VehicleDestroy{
			AttackerCharacterID: f.Uint64("attacker_character_id"),
			AttackerLoadoutID:   f.Uint32("attacker_loadout_id"),
			AttackerVehicleID:   f.Uint32("attacker_vehicle_id"),
			AttackerWeaponID:    f.Uint32("attacker_weapon_id"),
			CharacterID:         f.Uint64("character_id"),
			FacilityID:          f.Uint32("facility_id"),
			FactionID:           f.Uint8("faction_id"),
			Timestamp:           f.Uint64("timestamp"),
			VehicleID:           f.Uint32("vehicle_id"),
			WorldID:             f.Uint8("world_id"),
			ZoneID:              f.Uint32("zone_id"),
		}
	},
	NameGainExperience: func(f *fields) Event {
		return GainExperience{
			Amount:       f.Uint32("amount"),
			CharacterID:  f.Uint64("character_id"),
			ExperienceID: f.Uint32("experience_id"),
			LoadoutID:    f.Uint32("loadout_id"),
			OtherID:      f.Uint64("other_id"),
			Timestamp:    f.Uint64("timestamp"),
			WorldID:      f.Uint8("world_id"),
			ZoneID:       f.Uint32("zone_id"),
		}
	},
	NamePlayerFacilityCapture: func(f *fields) Event {
		return PlayerFacilityCapture(decodeFacilityPlayer(f))
	},
	NamePlayerFacilityDefend: func(f *fields) Event {
		return PlayerFacilityDefend(decodeFacilityPlayer(f))
	},
}

func decodeContinent(f *fields) ContinentLock {
	return ContinentLock{
		Timestamp:         f.Uint64("timestamp"),
		WorldID:           f.Uint8("world_id"),
		ZoneID:            f.Uint32("zone_id"),
		TriggeringFaction: f.Uint8("triggering_faction"),
		PreviousFaction:   f.Uint8("previous_faction"),
		VSPopulation:      f.Uint32("vs_population"),
		NCPopulation:      f.Uint32("nc_population"),
		TRPopulation:      f.Uint32("tr_population"),
		MetagameEventID:   f.Uint32("metagame_event_id"),
		EventType:         f.Uint32("event_type"),
	}
}

func decodeFacilityPlayer(f *fields) PlayerFacilityCapture {
	return PlayerFacilityCapture{
		CharacterID: f.Uint64("character_id"),
		FacilityID:  f.Uint32("facility_id"),
		OutfitID:    f.Uint64("outfit_id"),
		Timestamp:   f.Uint64("timestamp"),
		WorldID:     f.Uint8("world_id"),
		ZoneID:      f.Uint32("zone_id"),
	}
}

// Decode maps a service message payload to its typed event. An event_name
// outside the taxonomy fails with census.KindUnknownEvent; a missing or
// malformed field fails with census.KindDecode naming the field.
func Decode(name string, payload json.RawMessage) (Event, error) {
	dec, ok := decoders[Name(name)]
	if !ok {
		return nil, census.UnknownEvent(name)
	}
	f, err := newFields(payload)
	if err != nil {
		return nil, err
	}
	ev := dec(f)
	if err := f.Err(); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeServiceMessage decodes a whole {"type":"serviceMessage","payload":{...}}
// frame.
func DecodeServiceMessage(frame json.RawMessage) (Event, error) {
	var msg struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, census.Wrap(census.KindProtocol, "could not parse ws message to json", err)
	}
	var head struct {
		EventName *string `json:"event_name"`
	}
	if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, &head) != nil || head.EventName == nil {
		return nil, census.Protocol("not a service message")
	}
	return Decode(*head.EventName, msg.Payload)
}

// DecodeServiceState decodes a serviceStateChanged frame.
func DecodeServiceState(frame json.RawMessage) (ServiceStateChange, error) {
	f, err := newFields(frame)
	if err != nil {
		return ServiceStateChange{}, err
	}
	ev := ServiceStateChange{
		Detail: f.String("detail"),
		Online: f.Bool("online"),
	}
	return ev, f.Err()
}

// DecodeConnectionState decodes a connectionStateChanged frame.
func DecodeConnectionState(frame json.RawMessage) (ConnectionStateChange, error) {
	f, err := newFields(frame)
	if err != nil {
		return ConnectionStateChange{}, err
	}
	ev := ConnectionStateChange{Connected: f.Bool("connected")}
	return ev, f.Err()
}
