package catalog

import "sort"

// Display groups, in report order.
const (
	GroupBinarySensors = "Binary Sensors"
	GroupSensors       = "Sensors"
	GroupSwitches      = "Switches"
	GroupButtons       = "Buttons"
	GroupLights        = "Lights"
	GroupFans          = "Fans"
	GroupCovers        = "Covers"
	GroupClimate       = "Climate"
	GroupNumbers       = "Numbers"
	GroupSelects       = "Selects"
	GroupTextSensors   = "Text Sensors"
	GroupLocks         = "Locks"
	GroupMediaPlayers  = "Media Players"
	GroupCameras       = "Cameras"
	GroupOther         = "Other"
)

var groupOrder = []string{
	GroupBinarySensors,
	GroupSensors,
	GroupSwitches,
	GroupButtons,
	GroupLights,
	GroupFans,
	GroupCovers,
	GroupClimate,
	GroupNumbers,
	GroupSelects,
	GroupTextSensors,
	GroupLocks,
	GroupMediaPlayers,
	GroupCameras,
	GroupOther,
}

var groupByKind = map[Kind]string{
	KindBinarySensor: GroupBinarySensors,
	KindSensor:       GroupSensors,
	KindSwitch:       GroupSwitches,
	KindButton:       GroupButtons,
	KindLight:        GroupLights,
	KindFan:          GroupFans,
	KindCover:        GroupCovers,
	KindClimate:      GroupClimate,
	KindNumber:       GroupNumbers,
	KindSelect:       GroupSelects,
	KindTextSensor:   GroupTextSensors,
	KindLock:         GroupLocks,
	KindMediaPlayer:  GroupMediaPlayers,
	KindCamera:       GroupCameras,
}

// Group is one named display bucket.
type Group struct {
	Name     string
	Entities []Entity
}

// GroupNames returns the fixed display order.
func GroupNames() []string {
	out := make([]string, len(groupOrder))
	copy(out, groupOrder)
	return out
}

// GroupFor returns the display group of kind; unmapped kinds go to Other.
func GroupFor(kind Kind) string {
	if g, ok := groupByKind[kind]; ok {
		return g
	}
	return GroupOther
}

// GroupEntities partitions entities into every display group, including
// empty ones. Within a group, entities keep input order.
func GroupEntities(entities []Entity) []Group {
	groups := make([]Group, len(groupOrder))
	index := make(map[string]int, len(groupOrder))
	for i, name := range groupOrder {
		groups[i] = Group{Name: name}
		index[name] = i
	}
	for _, e := range entities {
		i := index[GroupFor(e.Kind)]
		groups[i].Entities = append(groups[i].Entities, e)
	}
	return groups
}

// SortedByDisplay returns a copy of entities ordered by DisplayLine.
func SortedByDisplay(entities []Entity) []Entity {
	out := make([]Entity, len(entities))
	copy(out, entities)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayLine() < out[j].DisplayLine()
	})
	return out
}
