package catalog

import "strings"

const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// Endpoint describes one REST resource of the device web server.
type Endpoint struct {
	Label    string
	Name     string
	ObjectID string
	Methods  []string
	Path     string
	Actions  []string
	Options  []string
}

// HasMethod reports whether the endpoint accepts method.
func (e Endpoint) HasMethod(method string) bool {
	for _, m := range e.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Skipped is an entity with no REST mapping.
type Skipped struct {
	Kind     Kind
	Name     string
	ObjectID string
}

type restMapping struct {
	label   string
	slug    string
	methods []string
	actions []string
}

var (
	readOnly  = []string{MethodGet}
	readWrite = []string{MethodGet, MethodPost}
	onOff     = []string{"turn_on", "turn_off", "toggle"}
)

var restMappings = map[Kind]restMapping{
	KindBinarySensor: {label: "Binary Sensor", slug: "binary_sensor", methods: readOnly},
	KindTextSensor:   {label: "Text Sensor", slug: "text_sensor", methods: readOnly},
	KindSensor:       {label: "Sensor", slug: "sensor", methods: readOnly},
	KindSwitch:       {label: "Switch", slug: "switch", methods: readWrite, actions: onOff},
	KindLight:        {label: "Light", slug: "light", methods: readWrite, actions: onOff},
	KindFan:          {label: "Fan", slug: "fan", methods: readWrite, actions: onOff},
	KindButton:       {label: "Button", slug: "button", methods: readWrite, actions: []string{"press"}},
	KindCover:        {label: "Cover", slug: "cover", methods: readWrite, actions: []string{"open", "close", "stop"}},
	KindClimate:      {label: "Climate", slug: "climate", methods: readWrite, actions: []string{"set mode, temperature"}},
	KindNumber:       {label: "Number", slug: "number", methods: readWrite, actions: []string{"set value"}},
	KindSelect:       {label: "Select", slug: "select", methods: readWrite, actions: []string{"set option"}},
	KindLock:         {label: "Lock", slug: "lock", methods: readWrite, actions: []string{"lock", "unlock"}},
	KindTime:         {label: "Time", slug: "time", methods: readWrite, actions: []string{"set time"}},
	KindText:         {label: "Text", slug: "text", methods: readWrite, actions: []string{"set text"}},
}

// HasEndpoint reports whether kind maps to a REST resource.
func HasEndpoint(kind Kind) bool {
	_, ok := restMappings[kind]
	return ok
}

// DeriveEndpoints maps each entity to its REST descriptor. Entities whose
// kind has no mapping are returned in the skipped list. Both outputs keep
// input order.
func DeriveEndpoints(entities []Entity) ([]Endpoint, []Skipped) {
	var endpoints []Endpoint
	var skipped []Skipped
	for _, e := range entities {
		m, ok := restMappings[e.Kind]
		if !ok {
			skipped = append(skipped, Skipped{Kind: e.Kind, Name: e.Name, ObjectID: e.ObjectID})
			continue
		}
		ep := Endpoint{
			Label:    m.label,
			Name:     e.Name,
			ObjectID: e.ObjectID,
			Methods:  cloneStrings(m.methods),
			Path:     "/" + m.slug + "/" + e.ObjectID,
			Actions:  cloneStrings(m.actions),
		}
		if e.Kind == KindSelect {
			ep.Options = cloneStrings(e.Options)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, skipped
}

// Slug returns the URL segment of an endpoint path ("switch" for
// "/switch/relay1").
func (e Endpoint) Slug() string {
	trimmed := strings.TrimPrefix(e.Path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
