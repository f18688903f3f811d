package appliance

import (
	"log/slog"

	"midea-bridge/internal/protocol"
)

// Rice cooker (type 0xEC). Reports state only; it accepts no commands.

// Out-of-range sentinels. A raw program code inside the catalog but in a
// reserved slot reads "unknown"; a code beyond the catalog entirely is a
// cloud-defined program the firmware knows and we do not.
const (
	ecProgramUnknown  = "unknown"
	ecProgramCloud    = "Cloud"
	ecProgressUnknown = "Unknown"
)

// ecPrograms is the cooking program catalog: 94 named programs, a reserved
// range, the cleaning program, another reserved range, then keep-warm and the
// user-defined program at fixed offsets.
var ecPrograms = buildECPrograms()

func buildECPrograms() codeList {
	l := codeList{
		"smart",
		"reserve",
		"cook_rice",
		"fast_cook_rice",
		"standard_cook_rice",
		"gruel",
		"cook_congee",
		"stew_soup",
		"stewing",
		"heat_rice",
		"make_cake",
		"yoghourt",
		"soup_rice",
		"coarse_rice",
		"five_ceeals_rice",
		"eight_treasures_rice",
		"crispy_rice",
		"shelled_rice",
		"eight_treasures_congee",
		"infant_congee",
		"older_rice",
		"rice_soup",
		"rice_paste",
		"egg_custard",
		"warm_milk",
		"hot_spring_egg",
		"millet_congee",
		"firewood_rice",
		"few_rice",
		"red_potato",
		"corn",
		"quick_freeze_bun",
		"steam_ribs",
		"steam_egg",
		"coarse_congee",
		"steep_rice",
		"appetizing_congee",
		"corn_congee",
		"sprout_rice",
		"luscious_rice",
		"luscious_boiled",
		"fast_rice",
		"fast_boil",
		"bean_rice_congee",
		"fast_congee",
		"baby_congee",
		"cook_soup",
		"congee_coup",
		"steam_corn",
		"steam_red_potato",
		"boil_congee",
		"delicious_steam",
		"boil_egg",
		"rice_wine",
		"fruit_vegetable_paste",
		"vegetable_porridge",
		"pork_porridge",
		"fragrant_rice",
		"assorte_rice",
		"steame_fish",
		"baby_rice",
		"essence_rice",
		"fragrant_dense_congee",
		"one_two_cook",
		"original_steame",
		"hot_fast_rice",
		"online_celebrity_rice",
		"sushi_rice",
		"stone_bowl_rice",
		"no_water_treat",
		"keep_fresh",
		"low_sugar_rice",
		"black_buckwheat_rice",
		"resveratrol_rice",
		"yellow_wheat_rice",
		"green_buckwheat_rice",
		"roughage_rice",
		"millet_mixed_rice",
		"iron_pan_rice",
		"olla_pan_rice",
		"vegetable_rice",
		"baby_side",
		"regimen_congee",
		"earthen_pot_congee",
		"regimen_soup",
		"pottery_jar_soup",
		"canton_soup",
		"nutrition_stew",
		"northeast_stew",
		"uncap_boil",
		"trichromatic_coarse_grain",
		"four_color_vegetables",
		"egg",
		"chop",
	}
	for i := 0; i < 98; i++ {
		l = append(l, ecProgramUnknown)
	}
	l = append(l, "clean")
	for i := 0; i < 5; i++ {
		l = append(l, ecProgramUnknown)
	}
	l = append(l, "keep_warm", "diy")
	return l
}

// ecProgress is the 0-based cooking stage list. Duplicate labels are real:
// several raw stages surface as the same semantic stage.
var ecProgress = codeList{
	"Idle",
	"Cooking",
	"Delay",
	"Keep-warm",
	"Lid-open",
	"Relieving",
	"Keep-pressure",
	"Relieving",
	"Cooking",
	"Relieving",
	"Lid-open",
}

type ecDevice struct {
	device
}

func newEC(host Host, logger *slog.Logger) Appliance {
	return &ecDevice{device{
		deviceType: protocol.TypeEC,
		host:       host,
		logger:     logger,
		attrs: newDeviceState([]attrDef{
			{AttrCooking, false},
			{AttrMode, 0},
			{AttrTimeRemaining, nil},
			{AttrTopTemperature, nil},
			{AttrBottomTemperature, nil},
			{AttrKeepWarmTime, nil},
			{AttrProgress, ecProgressUnknown},
			{AttrWithPressure, nil},
		}),
	}}
}

func (d *ecDevice) BuildQuery() []*protocol.Message {
	return []*protocol.Message{d.newMessage(protocol.KindQuery)}
}

func (d *ecDevice) Decode(msg *protocol.Message) map[string]any {
	d.version = msg.Version
	report := make(map[string]any)
	for _, attr := range d.attrs.order {
		if !msg.Has(attr) {
			continue
		}
		value := msg.Get(attr)
		switch attr {
		case AttrProgress:
			code, _ := asInt(value)
			if label, ok := ecProgress.label(code); ok {
				d.attrs.set(attr, label)
			} else {
				d.attrs.set(attr, ecProgressUnknown)
			}
		case AttrMode:
			code, _ := asInt(value)
			if label, ok := ecPrograms.label(code); ok {
				d.attrs.set(attr, label)
			} else {
				d.attrs.set(attr, ecProgramCloud)
			}
		default:
			d.attrs.set(attr, value)
		}
		report[attr] = d.attrs.get(attr)
	}
	return report
}

// SetAttribute is a no-op: the cooker has no controllable attributes.
func (d *ecDevice) SetAttribute(attr string, value any) error {
	return nil
}
