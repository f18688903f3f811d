package protocol

// Body layouts per appliance type, kind and form. These are fixed for the
// process lifetime; nothing mutates them after init.

type layoutKey struct {
	deviceType byte
	kind       Kind
	form       Form
}

var layouts = map[layoutKey]bodyCodec{
	// A1 dehumidifier
	{TypeA1, KindNotify, FormGeneral}: fixedLayout{
		size: 9,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "swing", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "anion", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "child_lock", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "mode", Byte: 1, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 2, Kind: FieldUint8},
			{Name: "target_humidity", Byte: 3, Kind: FieldUint8},
			{Name: "tank", Byte: 4, Kind: FieldUint8},
			{Name: "water_level_set", Byte: 5, Kind: FieldUint8},
			{Name: "current_humidity", Byte: 6, Kind: FieldUint8},
			{Name: "current_temperature", Byte: 7, Kind: FieldTempDeci},
		},
	},
	{TypeA1, KindSet, FormGeneral}: fixedLayout{
		size: 5,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "prompt_tone", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "child_lock", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "swing", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "anion", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "mode", Byte: 1, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 2, Kind: FieldUint8},
			{Name: "target_humidity", Byte: 3, Kind: FieldUint8},
			{Name: "water_level_set", Byte: 4, Kind: FieldUint8},
		},
	},

	// AC air conditioner
	{TypeAC, KindNotify, FormGeneral}: fixedLayout{
		size: 25,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "swing_vertical", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "swing_horizontal", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "smart_eye", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "dry", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "aux_heating", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "boost_mode", Byte: 1, Bit: 0, Kind: FieldBool},
			{Name: "natural_wind", Byte: 1, Bit: 1, Kind: FieldBool},
			{Name: "temp_fahrenheit", Byte: 1, Bit: 2, Kind: FieldBool},
			{Name: "screen_display", Byte: 1, Bit: 3, Kind: FieldBool},
			{Name: "screen_display_alternate", Byte: 1, Bit: 4, Kind: FieldBool},
			{Name: "full_dust", Byte: 1, Bit: 5, Kind: FieldBool},
			{Name: "frost_protect", Byte: 1, Bit: 6, Kind: FieldBool},
			{Name: "comfort_mode", Byte: 1, Bit: 7, Kind: FieldBool},
			{Name: "mode", Byte: 2, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 3, Kind: FieldUint8},
			{Name: "target_temperature", Byte: 4, Kind: FieldTempDeci},
			{Name: "indoor_temperature", Byte: 6, Kind: FieldTempDeci},
			{Name: "outdoor_temperature", Byte: 8, Kind: FieldTempDeci},
			{Name: "indoor_humidity", Byte: 10, Kind: FieldUint8},
			{Name: "indirect_wind", Byte: 11, Bit: 0, Kind: FieldBool},
			{Name: "breezeless", Byte: 11, Bit: 1, Kind: FieldBool},
			{Name: "fresh_air_power", Byte: 11, Bit: 2, Kind: FieldBool},
			{Name: "fresh_air_fan_speed", Byte: 12, Kind: FieldUint8},
			// Energy fields stay raw: the meter's digit coding varies per unit
			// and the appliance decodes them by its power analysis method.
			{Name: "total_energy_consumption", Byte: 13, Kind: FieldRaw32},
			{Name: "current_energy_consumption", Byte: 17, Kind: FieldRaw32},
			{Name: "realtime_power", Byte: 21, Kind: FieldRaw32},
		},
	},
	{TypeAC, KindSet, FormGeneral}: fixedLayout{
		size: 6,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "prompt_tone", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "swing_vertical", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "swing_horizontal", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "boost_mode", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "smart_eye", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "dry", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "aux_heating", Byte: 1, Bit: 0, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 1, Bit: 1, Kind: FieldBool},
			{Name: "natural_wind", Byte: 1, Bit: 2, Kind: FieldBool},
			{Name: "temp_fahrenheit", Byte: 1, Bit: 3, Kind: FieldBool},
			{Name: "frost_protect", Byte: 1, Bit: 4, Kind: FieldBool},
			{Name: "comfort_mode", Byte: 1, Bit: 5, Kind: FieldBool},
			{Name: "mode", Byte: 2, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 3, Kind: FieldUint8},
			{Name: "target_temperature", Byte: 4, Kind: FieldTempDeci},
		},
	},
	{TypeAC, KindSet, FormToggleDisplay}: fixedLayout{
		size: 1,
		fields: []FieldDef{
			{Name: "prompt_tone", Byte: 0, Bit: 0, Kind: FieldBool},
		},
	},
	{TypeAC, KindSet, FormNewProtocol}:    acNewProtocol,
	{TypeAC, KindNotify, FormNewProtocol}: acNewProtocol,
	{TypeAC, KindQuery, FormSubprotocol}: fixedLayout{
		size: 1,
		fields: []FieldDef{
			{Name: "data_type", Byte: 0, Kind: FieldUint8},
		},
	},
	{TypeAC, KindSet, FormSubprotocol}: fixedLayout{
		size: 6,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "prompt_tone", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "aux_heating", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "boost_mode", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "dry", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "sn8_flag", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "mode", Byte: 1, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 2, Kind: FieldUint8},
			{Name: "target_temperature", Byte: 3, Kind: FieldTempDeci},
			{Name: "timer", Byte: 5, Bit: 0, Kind: FieldBool},
		},
	},
	{TypeAC, KindNotify, FormSubprotocol}: fixedLayout{
		size: 6,
		fields: []FieldDef{
			{Name: "used_subprotocol", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "sn8_flag", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "timer", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "power", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "aux_heating", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "boost_mode", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "dry", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 1, Bit: 0, Kind: FieldBool},
			{Name: "mode", Byte: 2, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 3, Kind: FieldUint8},
			{Name: "target_temperature", Byte: 4, Kind: FieldTempDeci},
		},
	},

	// B1 sterilizer cabinet
	{TypeB1, KindNotify, FormGeneral}: fixedLayout{
		size: 6,
		fields: []FieldDef{
			{Name: "door", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "tank_ejected", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "water_change_reminder", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "water_shortage", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "status", Byte: 1, Kind: FieldUint8},
			{Name: "time_remaining", Byte: 2, Kind: FieldUint16},
			{Name: "current_temperature", Byte: 4, Kind: FieldTempDeci},
		},
	},

	// CC fan coil air conditioner
	{TypeCC, KindNotify, FormGeneral}: fixedLayout{
		size: 11,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "night_light", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "ventilation", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "swing", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "auto_aux_heat_running", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "temp_fahrenheit", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "mode", Byte: 1, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 2, Kind: FieldUint8},
			{Name: "fan_speed_level", Byte: 3, Bit: 0, Kind: FieldBool},
			{Name: "target_temperature", Byte: 4, Kind: FieldTempDeci},
			{Name: "indoor_temperature", Byte: 6, Kind: FieldTempDeci},
			{Name: "aux_heat_status", Byte: 8, Kind: FieldUint8},
			{Name: "temperature_precision", Byte: 9, Kind: FieldTempDeci},
		},
	},
	{TypeCC, KindSet, FormGeneral}: fixedLayout{
		size: 6,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "night_light", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "swing", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "mode", Byte: 1, Kind: FieldUint8},
			{Name: "fan_speed", Byte: 2, Kind: FieldUint8},
			{Name: "target_temperature", Byte: 3, Kind: FieldTempDeci},
			{Name: "aux_heat_status", Byte: 5, Kind: FieldUint8},
		},
	},

	// CE fresh air system
	{TypeCE, KindNotify, FormGeneral}: fixedLayout{
		size: 13,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "child_lock", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "scheduled", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "link_to_ac", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "aux_heating", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "powerful_purify", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "filter_cleaning_reminder", Byte: 1, Bit: 0, Kind: FieldBool},
			{Name: "filter_change_reminder", Byte: 1, Bit: 1, Kind: FieldBool},
			{Name: "fan_speed", Byte: 2, Kind: FieldUint8},
			{Name: "pm25", Byte: 3, Kind: FieldUint16},
			{Name: "co2", Byte: 5, Kind: FieldUint16},
			{Name: "current_humidity", Byte: 7, Kind: FieldUint8},
			{Name: "current_temperature", Byte: 8, Kind: FieldTempDeci},
			{Name: "hcho", Byte: 10, Kind: FieldUint16},
			{Name: "error_code", Byte: 12, Kind: FieldUint8},
		},
	},
	{TypeCE, KindSet, FormGeneral}: fixedLayout{
		size: 2,
		fields: []FieldDef{
			{Name: "power", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "scheduled", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "link_to_ac", Byte: 0, Bit: 2, Kind: FieldBool},
			{Name: "sleep_mode", Byte: 0, Bit: 3, Kind: FieldBool},
			{Name: "eco_mode", Byte: 0, Bit: 4, Kind: FieldBool},
			{Name: "aux_heating", Byte: 0, Bit: 5, Kind: FieldBool},
			{Name: "powerful_purify", Byte: 0, Bit: 6, Kind: FieldBool},
			{Name: "child_lock", Byte: 0, Bit: 7, Kind: FieldBool},
			{Name: "fan_speed", Byte: 1, Kind: FieldUint8},
		},
	},

	// EC rice cooker
	{TypeEC, KindNotify, FormGeneral}: fixedLayout{
		size: 10,
		fields: []FieldDef{
			{Name: "cooking", Byte: 0, Bit: 0, Kind: FieldBool},
			{Name: "with_pressure", Byte: 0, Bit: 1, Kind: FieldBool},
			{Name: "mode", Byte: 1, Kind: FieldUint16},
			{Name: "time_remaining", Byte: 3, Kind: FieldUint16},
			{Name: "keep_warm_time", Byte: 5, Kind: FieldUint16},
			{Name: "top_temperature", Byte: 7, Kind: FieldUint8},
			{Name: "bottom_temperature", Byte: 8, Kind: FieldUint8},
			{Name: "progress", Byte: 9, Kind: FieldUint8},
		},
	},
}

// acNewProtocol maps the air conditioner's extension fields to their
// new-protocol property ids.
var acNewProtocol = tlvLayout{
	props: []tlvProp{
		{Name: "screen_display_alternate", ID: 0x0017, Kind: FieldBool},
		{Name: "breezeless", ID: 0x0018, Kind: FieldBool},
		{Name: "prompt_tone", ID: 0x001A, Kind: FieldBool},
		{Name: "indirect_wind", ID: 0x0042, Kind: FieldBool},
		{Name: "fresh_air_2", ID: 0x004B, Kind: FieldFreshAir},
		{Name: "fresh_air_1", ID: 0x0233, Kind: FieldFreshAir},
	},
}

func lookupLayout(m *Message) (bodyCodec, bool) {
	c, ok := layouts[layoutKey{m.DeviceType, m.Kind, m.Form}]
	return c, ok
}
