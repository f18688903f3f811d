//go:build !no_mqtt

package mqtt

import (
	"fmt"
	"strings"

	"midea-bridge/internal/appliance"
	"midea-bridge/internal/protocol"
	"midea-bridge/internal/store"
)

// discoveryMsg is a Home Assistant MQTT discovery payload.
type discoveryMsg struct {
	Topic   string // e.g. "homeassistant/sensor/midea_18691234.../tank/config"
	Payload []byte // JSON, empty means delete
}

// haDevice is the "device" block in HA discovery.
type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name"`
}

// haDiscovery is a generic HA discovery payload.
type haDiscovery struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	CommandTopic      string   `json:"command_topic,omitempty"`
	CommandTemplate   string   `json:"command_template,omitempty"`
	AvailabilityTopic string   `json:"availability_topic"`
	ValueTemplate     string   `json:"value_template,omitempty"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	PayloadOn         string   `json:"payload_on,omitempty"`
	PayloadOff        string   `json:"payload_off,omitempty"`
	Options           []string `json:"options,omitempty"`
	Min               float64  `json:"min,omitempty"`
	Max               float64  `json:"max,omitempty"`
	Step              float64  `json:"step,omitempty"`
	Device            haDevice `json:"device"`
}

// deviceDisplayName returns a display name for the device.
func deviceDisplayName(dev *store.Device) string {
	if dev.FriendlyName != "" {
		return dev.FriendlyName
	}
	return appliance.TypeName(dev.Type) + " " + dev.ID
}

// deviceIdentifier returns the unique identifier for HA device registry.
func deviceIdentifier(dev *store.Device) string {
	return "midea_" + dev.ID
}

// deviceTopicName returns the topic name for a device (friendly name or id).
func deviceTopicName(dev *store.Device) string {
	if dev.FriendlyName != "" {
		// Sanitize: lowercase and keep only safe chars for MQTT topics.
		name := strings.ToLower(dev.FriendlyName)
		name = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
				return r
			}
			return '_'
		}, name)
		return name
	}
	return dev.ID
}

// discoveryBuilder accumulates the component messages for one device.
type discoveryBuilder struct {
	nodeID     string
	name       string
	stateTopic string
	cmdTopic   string
	avail      string
	haDev      haDevice
	msgs       []discoveryMsg
}

// buildDiscovery generates HA discovery messages for a device based on its
// appliance type.
func buildDiscovery(dev *store.Device, prefix string) []discoveryMsg {
	d := &discoveryBuilder{
		nodeID:     deviceIdentifier(dev),
		name:       deviceDisplayName(dev),
		stateTopic: prefix + "/" + deviceTopicName(dev),
		cmdTopic:   prefix + "/" + deviceTopicName(dev) + "/set",
		avail:      prefix + "/bridge/state",
	}
	d.haDev = haDevice{
		Identifiers:  []string{d.nodeID},
		Manufacturer: "Midea",
		Model:        appliance.TypeName(dev.Type),
		Name:         d.name,
	}

	switch dev.Type {
	case protocol.TypeA1:
		d.addSwitch("power", "Power")
		d.addSwitch("child_lock", "Child Lock")
		d.addSwitch("anion", "Anion")
		d.addSwitch("swing", "Swing")
		d.addSelect("mode", "Mode", appliance.Labels(dev.Type, "mode"))
		d.addSelect("fan_speed", "Fan Speed", appliance.Labels(dev.Type, "fan_speed"))
		d.addSelect("water_level_set", "Water Level", appliance.Labels(dev.Type, "water_level_set"))
		d.addNumber("target_humidity", "Target Humidity", 35, 85, 5, "%")
		d.addBinarySensor("tank_full", "Tank Full", "problem")
		d.addSensor("tank", "Tank", "", "%", "measurement")
		d.addSensor("current_humidity", "Humidity", "humidity", "%", "measurement")
		d.addSensor("current_temperature", "Temperature", "temperature", "°C", "measurement")

	case protocol.TypeAC:
		d.addSwitch("power", "Power")
		d.addSwitch("eco_mode", "Eco")
		d.addSwitch("boost_mode", "Boost")
		d.addSwitch("sleep_mode", "Sleep")
		d.addSwitch("screen_display", "Display")
		d.addSwitch("indirect_wind", "Indirect Wind")
		d.addNumber("target_temperature", "Target Temperature", 16, 30, 0.5, "°C")
		d.addSelect("fresh_air_mode", "Fresh Air", appliance.Labels(dev.Type, "fresh_air_mode"))
		d.addSensor("indoor_temperature", "Indoor Temperature", "temperature", "°C", "measurement")
		d.addSensor("outdoor_temperature", "Outdoor Temperature", "temperature", "°C", "measurement")
		d.addSensor("indoor_humidity", "Indoor Humidity", "humidity", "%", "measurement")
		d.addSensor("realtime_power", "Power Draw", "power", "W", "measurement")
		d.addSensor("total_energy_consumption", "Energy", "energy", "kWh", "total_increasing")

	case protocol.TypeB1:
		d.addSensor("status", "Status", "", "", "")
		d.addSensor("time_remaining", "Time Remaining", "duration", "min", "measurement")
		d.addSensor("current_temperature", "Temperature", "temperature", "°C", "measurement")
		d.addBinarySensor("door", "Door", "door")
		d.addBinarySensor("water_shortage", "Water Shortage", "problem")

	case protocol.TypeCC:
		d.addSwitch("power", "Power")
		d.addSwitch("eco_mode", "Eco")
		d.addSwitch("sleep_mode", "Sleep")
		d.addSwitch("aux_heating", "Aux Heat")
		d.addNumber("target_temperature", "Target Temperature", 16, 30, 0.5, "°C")
		d.addSensor("indoor_temperature", "Indoor Temperature", "temperature", "°C", "measurement")

	case protocol.TypeCE:
		d.addSwitch("power", "Power")
		d.addSwitch("child_lock", "Child Lock")
		d.addSelect("mode", "Preset", appliance.Labels(dev.Type, "mode"))
		d.addSensor("pm25", "PM2.5", "pm25", "µg/m³", "measurement")
		d.addSensor("co2", "CO2", "carbon_dioxide", "ppm", "measurement")
		d.addSensor("hcho", "Formaldehyde", "", "µg/m³", "measurement")
		d.addSensor("current_humidity", "Humidity", "humidity", "%", "measurement")
		d.addSensor("current_temperature", "Temperature", "temperature", "°C", "measurement")

	case protocol.TypeEC:
		d.addBinarySensor("cooking", "Cooking", "running")
		d.addSensor("mode", "Program", "", "", "")
		d.addSensor("progress", "Stage", "", "", "")
		d.addSensor("time_remaining", "Time Remaining", "duration", "min", "measurement")
		d.addSensor("keep_warm_time", "Keep Warm Time", "duration", "min", "measurement")
		d.addSensor("bottom_temperature", "Bottom Temperature", "temperature", "°C", "measurement")
	}

	return d.msgs
}

func (d *discoveryBuilder) addSensor(attr, suffix, deviceClass, unit, stateClass string) {
	topic := fmt.Sprintf("homeassistant/sensor/%s/%s/config", d.nodeID, attr)
	payload := haDiscovery{
		Name:              d.name + " " + suffix,
		UniqueID:          d.nodeID + "_" + attr,
		StateTopic:        d.stateTopic,
		AvailabilityTopic: d.avail,
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", attr),
		UnitOfMeasurement: unit,
		DeviceClass:       deviceClass,
		StateClass:        stateClass,
		Device:            d.haDev,
	}
	d.msgs = append(d.msgs, discoveryMsg{Topic: topic, Payload: mustJSON(payload)})
}

func (d *discoveryBuilder) addBinarySensor(attr, suffix, deviceClass string) {
	topic := fmt.Sprintf("homeassistant/binary_sensor/%s/%s/config", d.nodeID, attr)
	payload := haDiscovery{
		Name:              d.name + " " + suffix,
		UniqueID:          d.nodeID + "_" + attr,
		StateTopic:        d.stateTopic,
		AvailabilityTopic: d.avail,
		ValueTemplate:     fmt.Sprintf("{{ 'ON' if value_json.%s else 'OFF' }}", attr),
		DeviceClass:       deviceClass,
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Device:            d.haDev,
	}
	d.msgs = append(d.msgs, discoveryMsg{Topic: topic, Payload: mustJSON(payload)})
}

func (d *discoveryBuilder) addSwitch(attr, suffix string) {
	topic := fmt.Sprintf("homeassistant/switch/%s/%s/config", d.nodeID, attr)
	payload := haDiscovery{
		Name:              d.name + " " + suffix,
		UniqueID:          d.nodeID + "_" + attr,
		StateTopic:        d.stateTopic,
		CommandTopic:      d.cmdTopic,
		CommandTemplate:   fmt.Sprintf(`{"%s": "{{ value }}"}`, attr),
		AvailabilityTopic: d.avail,
		ValueTemplate:     fmt.Sprintf("{{ 'ON' if value_json.%s else 'OFF' }}", attr),
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Device:            d.haDev,
	}
	d.msgs = append(d.msgs, discoveryMsg{Topic: topic, Payload: mustJSON(payload)})
}

func (d *discoveryBuilder) addSelect(attr, suffix string, options []string) {
	if len(options) == 0 {
		return
	}
	topic := fmt.Sprintf("homeassistant/select/%s/%s/config", d.nodeID, attr)
	payload := haDiscovery{
		Name:              d.name + " " + suffix,
		UniqueID:          d.nodeID + "_" + attr,
		StateTopic:        d.stateTopic,
		CommandTopic:      d.cmdTopic,
		CommandTemplate:   fmt.Sprintf(`{"%s": "{{ value }}"}`, attr),
		AvailabilityTopic: d.avail,
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", attr),
		Options:           options,
		Device:            d.haDev,
	}
	d.msgs = append(d.msgs, discoveryMsg{Topic: topic, Payload: mustJSON(payload)})
}

func (d *discoveryBuilder) addNumber(attr, suffix string, minV, maxV, step float64, unit string) {
	topic := fmt.Sprintf("homeassistant/number/%s/%s/config", d.nodeID, attr)
	payload := haDiscovery{
		Name:              d.name + " " + suffix,
		UniqueID:          d.nodeID + "_" + attr,
		StateTopic:        d.stateTopic,
		CommandTopic:      d.cmdTopic,
		CommandTemplate:   fmt.Sprintf(`{"%s": {{ value }}}`, attr),
		AvailabilityTopic: d.avail,
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", attr),
		UnitOfMeasurement: unit,
		Min:               minV,
		Max:               maxV,
		Step:              step,
		Device:            d.haDev,
	}
	d.msgs = append(d.msgs, discoveryMsg{Topic: topic, Payload: mustJSON(payload)})
}

// buildRemoveDiscovery generates empty retained messages to remove a device
// from HA. Covers every component any appliance type publishes.
func buildRemoveDiscovery(dev *store.Device) []discoveryMsg {
	nodeID := deviceIdentifier(dev)

	components := []struct{ comp, obj string }{
		{"switch", "power"},
		{"switch", "child_lock"},
		{"switch", "anion"},
		{"switch", "swing"},
		{"switch", "eco_mode"},
		{"switch", "boost_mode"},
		{"switch", "sleep_mode"},
		{"switch", "screen_display"},
		{"switch", "indirect_wind"},
		{"switch", "aux_heating"},
		{"select", "mode"},
		{"select", "fan_speed"},
		{"select", "water_level_set"},
		{"select", "fresh_air_mode"},
		{"number", "target_humidity"},
		{"number", "target_temperature"},
		{"sensor", "status"},
		{"sensor", "mode"},
		{"sensor", "progress"},
		{"sensor", "tank"},
		{"sensor", "time_remaining"},
		{"sensor", "keep_warm_time"},
		{"sensor", "current_humidity"},
		{"sensor", "current_temperature"},
		{"sensor", "indoor_temperature"},
		{"sensor", "outdoor_temperature"},
		{"sensor", "indoor_humidity"},
		{"sensor", "bottom_temperature"},
		{"sensor", "pm25"},
		{"sensor", "co2"},
		{"sensor", "hcho"},
		{"sensor", "realtime_power"},
		{"sensor", "total_energy_consumption"},
		{"binary_sensor", "tank_full"},
		{"binary_sensor", "door"},
		{"binary_sensor", "water_shortage"},
		{"binary_sensor", "cooking"},
	}

	var msgs []discoveryMsg
	for _, c := range components {
		msgs = append(msgs, discoveryMsg{
			Topic:   fmt.Sprintf("homeassistant/%s/%s/%s/config", c.comp, nodeID, c.obj),
			Payload: nil, // empty retained = delete
		})
	}
	return msgs
}
