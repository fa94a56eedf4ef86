package census

import "strconv"

// World is a game server id as it appears in world_id fields.
type World uint8

const (
	Connery World = 1
	Miller  World = 10
	Cobalt  World = 13
	Emerald World = 17
	Jaeger  World = 19
	Apex    World = 24
	Briggs  World = 25
	SolTech World = 40
)

var worldNames = map[World]string{
	Connery: "Connery",
	Miller:  "Miller",
	Cobalt:  "Cobalt",
	Emerald: "Emerald",
	Jaeger:  "Jaeger",
	Apex:    "Apex",
	Briggs:  "Briggs",
	SolTech: "SolTech",
}

// String returns the server name, or the numeric id for unknown worlds.
func (w World) String() string {
	if n, ok := worldNames[w]; ok {
		return n
	}
	return strconv.Itoa(int(w))
}

// ID returns the id in the string form used by subscribe commands.
func (w World) ID() string {
	return strconv.Itoa(int(w))
}
