package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/nativectl/internal/testutil/testlog"
)

func TestDeriveEndpointsSwitch(t *testing.T) {
	testlog.Start(t)
	endpoints, skipped := DeriveEndpoints([]Entity{{Kind: KindSwitch, ObjectID: "relay1", Key: 42, Name: "Relay 1"}})
	require.Empty(t, skipped)
	require.Len(t, endpoints, 1)
	assert.Equal(t, Endpoint{
		Label:    "Switch",
		Name:     "Relay 1",
		ObjectID: "relay1",
		Methods:  []string{"GET", "POST"},
		Path:     "/switch/relay1",
		Actions:  []string{"turn_on", "turn_off", "toggle"},
	}, endpoints[0])
	assert.Equal(t, "switch", endpoints[0].Slug())
}

func TestDeriveEndpointsSelectCarriesOptions(t *testing.T) {
	testlog.Start(t)
	endpoints, _ := DeriveEndpoints([]Entity{{Kind: KindSelect, ObjectID: "mode", Name: "Mode", Options: []string{"A", "B", "C"}}})
	require.Len(t, endpoints, 1)
	assert.Equal(t, "/select/mode", endpoints[0].Path)
	assert.Equal(t, []string{"set option"}, endpoints[0].Actions)
	assert.Equal(t, []string{"A", "B", "C"}, endpoints[0].Options)
}

func TestDeriveEndpointsReadOnlyKinds(t *testing.T) {
	testlog.Start(t)
	cases := map[Kind]string{
		KindBinarySensor: "/binary_sensor/x",
		KindTextSensor:   "/text_sensor/x",
		KindSensor:       "/sensor/x",
	}
	for kind, path := range cases {
		endpoints, _ := DeriveEndpoints([]Entity{{Kind: kind, ObjectID: "x"}})
		require.Len(t, endpoints, 1)
		assert.Equal(t, path, endpoints[0].Path)
		assert.Equal(t, []string{"GET"}, endpoints[0].Methods)
		assert.Empty(t, endpoints[0].Actions)
		assert.True(t, endpoints[0].HasMethod(MethodGet))
		assert.False(t, endpoints[0].HasMethod(MethodPost))
	}
}

func TestDeriveEndpointsSupportedSubset(t *testing.T) {
	testlog.Start(t)
	var entities []Entity
	for _, kind := range kindsByType {
		entities = append(entities, Entity{Kind: kind, ObjectID: string(kind), Name: string(kind)})
	}
	endpoints, skipped := DeriveEndpoints(entities)
	assert.Len(t, endpoints, 14)
	assert.Len(t, skipped, 11)
	assert.Equal(t, len(entities), len(endpoints)+len(skipped), "no entity may be dropped")

	unsupported := map[Kind]bool{
		KindAlarmControlPanel: true, KindDate: true, KindDateTime: true, KindEvent: true,
		KindValve: true, KindUpdate: true, KindWaterHeater: true, KindSiren: true,
		KindInfrared: true, KindCamera: true, KindMediaPlayer: true,
	}
	for _, s := range skipped {
		assert.True(t, unsupported[s.Kind], "unexpected skipped kind %s", s.Kind)
		assert.False(t, HasEndpoint(s.Kind))
	}
}

func TestDeriveEndpointsActionVocabulary(t *testing.T) {
	testlog.Start(t)
	cases := map[Kind][]string{
		KindLight:   {"turn_on", "turn_off", "toggle"},
		KindFan:     {"turn_on", "turn_off", "toggle"},
		KindButton:  {"press"},
		KindCover:   {"open", "close", "stop"},
		KindClimate: {"set mode, temperature"},
		KindNumber:  {"set value"},
		KindLock:    {"lock", "unlock"},
		KindTime:    {"set time"},
		KindText:    {"set text"},
	}
	for kind, actions := range cases {
		endpoints, _ := DeriveEndpoints([]Entity{{Kind: kind, ObjectID: "o"}})
		require.Len(t, endpoints, 1, string(kind))
		assert.Equal(t, actions, endpoints[0].Actions, string(kind))
		assert.Equal(t, []string{"GET", "POST"}, endpoints[0].Methods, string(kind))
	}
}

func TestDeriveEndpointsDoesNotAliasMappings(t *testing.T) {
	testlog.Start(t)
	first, _ := DeriveEndpoints([]Entity{{Kind: KindSwitch, ObjectID: "a"}})
	first[0].Actions[0] = "mutated"
	second, _ := DeriveEndpoints([]Entity{{Kind: KindSwitch, ObjectID: "b"}})
	assert.Equal(t, "turn_on", second[0].Actions[0])
}
