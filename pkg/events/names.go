// Package events defines the closed set of push events and decodes service
// message payloads into them.
package events

// Name is an event tag as used in event_name fields and subscribe commands.
type Name string

const (
	NamePlayerLogin           Name = "PlayerLogin"
	NamePlayerLogout          Name = "PlayerLogout"
	NameContinentLock         Name = "ContinentLock"
	NameContinentUnlock       Name = "ContinentUnlock"
	NameFacilityControl       Name = "FacilityControl"
	NameMetagameEvent         Name = "MetagameEvent"
	NameAchievementEarned     Name = "AchievementEarned"
	NameBattleRankUp          Name = "BattleRankUp"
	NameDeath                 Name = "Death"
	NameItemAdded             Name = "ItemAdded"
	NameSkillAdded            Name = "SkillAdded"
	NameVehicleDestroy        Name = "VehicleDestroy"
	NameGainExperience        Name = "GainExperience"
	NamePlayerFacilityCapture Name = "PlayerFacilityCapture"
	NamePlayerFacilityDefend  Name = "PlayerFacilityDefend"

	// Status names carry no upstream event_name; they are derived from the
	// frame type and cannot be subscribed to.
	NameServiceStateChanged    Name = "ServiceStateChanged"
	NameConnectionStateChanged Name = "ConnectionStateChanged"
)

// Family groups event names.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyStatus
	FamilyConnection
	FamilyWorld
	FamilyCharacter
)

func (f Family) String() string {
	switch f {
	case FamilyStatus:
		return "status"
	case FamilyConnection:
		return "connection"
	case FamilyWorld:
		return "world"
	case FamilyCharacter:
		return "character"
	default:
		return "unknown"
	}
}

// FamilyOf returns the family an event name belongs to.
func FamilyOf(n Name) Family {
	switch n {
	case NameServiceStateChanged, NameConnectionStateChanged:
		return FamilyStatus
	case NamePlayerLogin, NamePlayerLogout:
		return FamilyConnection
	case NameContinentLock, NameContinentUnlock, NameFacilityControl, NameMetagameEvent:
		return FamilyWorld
	case NameAchievementEarned, NameBattleRankUp, NameDeath, NameItemAdded, NameSkillAdded,
		NameVehicleDestroy, NameGainExperience, NamePlayerFacilityCapture, NamePlayerFacilityDefend:
		return FamilyCharacter
	}
	return FamilyUnknown
}

// Names returns every subscribable event name.
func Names() []Name {
	return []Name{
		NamePlayerLogin, NamePlayerLogout,
		NameContinentLock, NameContinentUnlock, NameFacilityControl, NameMetagameEvent,
		NameAchievementEarned, NameBattleRankUp, NameDeath, NameItemAdded, NameSkillAdded,
		NameVehicleDestroy, NameGainExperience, NamePlayerFacilityCapture, NamePlayerFacilityDefend,
	}
}

// ParseName returns the subscribable Name matching s.
func ParseName(s string) (Name, bool) {
	for _, n := range Names() {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}
