// Package catalog turns list-entities messages into entity records, groups
// them for display and derives the REST endpoints the device web server
// exposes for them.
package catalog

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/observability"
	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/wire"
)

// Kind names an entity category.
type Kind string

const (
	KindBinarySensor      Kind = "BinarySensor"
	KindCover             Kind = "Cover"
	KindFan               Kind = "Fan"
	KindLight             Kind = "Light"
	KindSensor            Kind = "Sensor"
	KindSwitch            Kind = "Switch"
	KindTextSensor        Kind = "TextSensor"
	KindCamera            Kind = "Camera"
	KindClimate           Kind = "Climate"
	KindNumber            Kind = "Number"
	KindSelect            Kind = "Select"
	KindSiren             Kind = "Siren"
	KindLock              Kind = "Lock"
	KindButton            Kind = "Button"
	KindMediaPlayer       Kind = "MediaPlayer"
	KindAlarmControlPanel Kind = "AlarmControlPanel"
	KindText              Kind = "Text"
	KindDate              Kind = "Date"
	KindTime              Kind = "Time"
	KindEvent             Kind = "Event"
	KindValve             Kind = "Valve"
	KindDateTime          Kind = "DateTime"
	KindUpdate            Kind = "Update"
	KindWaterHeater       Kind = "WaterHeater"
	KindInfrared          Kind = "Infrared"
)

var kindsByType = map[protocol.MessageType]Kind{
	12:  KindBinarySensor,
	13:  KindCover,
	14:  KindFan,
	15:  KindLight,
	16:  KindSensor,
	17:  KindSwitch,
	18:  KindTextSensor,
	43:  KindCamera,
	46:  KindClimate,
	49:  KindNumber,
	52:  KindSelect,
	55:  KindSiren,
	58:  KindLock,
	61:  KindButton,
	63:  KindMediaPlayer,
	94:  KindAlarmControlPanel,
	97:  KindText,
	100: KindDate,
	103: KindTime,
	107: KindEvent,
	109: KindValve,
	112: KindDateTime,
	116: KindUpdate,
	132: KindWaterHeater,
	135: KindInfrared,
}

// Common entity fields shared by every list-entities response.
const (
	FieldObjectID      wire.Number = 1
	FieldKey           wire.Number = 2
	FieldName          wire.Number = 3
	FieldSelectOptions wire.Number = 6
)

// KindForType maps a list-entities message type id to its category.
func KindForType(msgType protocol.MessageType) (Kind, bool) {
	k, ok := kindsByType[msgType]
	return k, ok
}

// Entity is one capability the device exposes. Strings are kept exactly as
// received; display code sanitizes them.
type Entity struct {
	Kind     Kind
	ObjectID string
	Key      uint32
	Name     string
	Options  []string
}

// DisplayLine is the sort key and listing form: "[key] name (object_id)".
func (e Entity) DisplayLine() string {
	return fmt.Sprintf("[%d] %s (%s)", e.Key, e.Name, e.ObjectID)
}

// DecodeEntity decodes a list-entities response. It reports false for type
// ids that do not describe an entity.
func DecodeEntity(msgType protocol.MessageType, data []byte) (Entity, bool) {
	kind, ok := KindForType(msgType)
	if !ok {
		return Entity{}, false
	}
	f := wire.Decode(data)
	e := Entity{
		Kind:     kind,
		ObjectID: f.String(FieldObjectID),
		Key:      f.Fixed32(FieldKey),
		Name:     f.String(FieldName),
	}
	if kind == KindSelect {
		e.Options = f.Strings(FieldSelectOptions)
	}
	return e, true
}

// Collector accumulates entities in arrival order until frozen.
type Collector struct {
	mu       sync.Mutex
	entities []Entity
	frozen   bool
}

func NewCollector() *Collector {
	return &Collector{}
}

// Add decodes and appends one list-entities message. It reports whether an
// entity was recorded; unknown type ids and a frozen collector record nothing.
func (c *Collector) Add(msg protocol.Message) bool {
	e, ok := DecodeEntity(msg.Type, msg.Data)
	if !ok {
		log.Warn().Msgf("catalog.Collector ignoring message type=%d", msg.Type)
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return false
	}
	c.entities = append(c.entities, e)
	observability.RecordEntity(string(e.Kind))
	log.Debug().Msgf("catalog.Collector kind=%s object_id=%q key=%d", e.Kind, e.ObjectID, e.Key)
	return true
}

// Freeze stops accepting entities and returns the final list.
func (c *Collector) Freeze() []Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

func (c *Collector) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entities)
}
