package appliance

// Semantic attribute names. Inbound message fields carry the same names, so
// decode can test field presence attribute by attribute.
const (
	AttrAnion                    = "anion"
	AttrAuxHeatStatus            = "aux_heat_status"
	AttrAuxHeating               = "aux_heating"
	AttrAutoAuxHeatRunning       = "auto_aux_heat_running"
	AttrBoostMode                = "boost_mode"
	AttrBottomTemperature        = "bottom_temperature"
	AttrBreezeless               = "breezeless"
	AttrChildLock                = "child_lock"
	AttrCO2                      = "co2"
	AttrComfortMode              = "comfort_mode"
	AttrCooking                  = "cooking"
	AttrCurrentEnergyConsumption = "current_energy_consumption"
	AttrCurrentHumidity          = "current_humidity"
	AttrCurrentTemperature       = "current_temperature"
	AttrDoor                     = "door"
	AttrDry                      = "dry"
	AttrEcoMode                  = "eco_mode"
	AttrErrorCode                = "error_code"
	AttrFanSpeed                 = "fan_speed"
	AttrFanSpeedLevel            = "fan_speed_level"
	AttrFilterChangeReminder     = "filter_change_reminder"
	AttrFilterCleaningReminder   = "filter_cleaning_reminder"
	AttrFreshAir1                = "fresh_air_1"
	AttrFreshAir2                = "fresh_air_2"
	AttrFreshAirFanSpeed         = "fresh_air_fan_speed"
	AttrFreshAirMode             = "fresh_air_mode"
	AttrFreshAirPower            = "fresh_air_power"
	AttrFrostProtect             = "frost_protect"
	AttrFullDust                 = "full_dust"
	AttrHCHO                     = "hcho"
	AttrIndirectWind             = "indirect_wind"
	AttrIndoorHumidity           = "indoor_humidity"
	AttrIndoorTemperature        = "indoor_temperature"
	AttrKeepWarmTime             = "keep_warm_time"
	AttrLinkToAC                 = "link_to_ac"
	AttrMode                     = "mode"
	AttrNaturalWind              = "natural_wind"
	AttrNightLight               = "night_light"
	AttrOutdoorTemperature       = "outdoor_temperature"
	AttrPM25                     = "pm25"
	AttrPower                    = "power"
	AttrPowerfulPurify           = "powerful_purify"
	AttrProgress                 = "progress"
	AttrPromptTone               = "prompt_tone"
	AttrRealtimePower            = "realtime_power"
	AttrScheduled                = "scheduled"
	AttrScreenDisplay            = "screen_display"
	AttrScreenDisplayAlternate   = "screen_display_alternate"
	AttrSleepMode                = "sleep_mode"
	AttrSmartEye                 = "smart_eye"
	AttrStatus                   = "status"
	AttrSwing                    = "swing"
	AttrSwingHorizontal          = "swing_horizontal"
	AttrSwingVertical            = "swing_vertical"
	AttrTank                     = "tank"
	AttrTankEjected              = "tank_ejected"
	AttrTankFull                 = "tank_full"
	AttrTargetHumidity           = "target_humidity"
	AttrTargetTemperature        = "target_temperature"
	AttrTempFahrenheit           = "temp_fahrenheit"
	AttrTemperaturePrecision     = "temperature_precision"
	AttrTimeRemaining            = "time_remaining"
	AttrTopTemperature           = "top_temperature"
	AttrTotalEnergyConsumption   = "total_energy_consumption"
	AttrVentilation              = "ventilation"
	AttrWaterChangeReminder      = "water_change_reminder"
	AttrWaterLevelSet            = "water_level_set"
	AttrWaterShortage            = "water_shortage"
	AttrWithPressure             = "with_pressure"
)
