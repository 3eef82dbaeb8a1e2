package schemas

import "github.com/JonMunkholm/partsdesk/internal/core"

func init() {
	registerResistors()
	registerCapacitors()
}

func registerResistors() {
	register(core.KindResistor, "Resistors", "Resistor",
		[]string{"Resistor", "10K", "RC0805FR-0710KL", "10K Ohm 1% 1/8W", "0805 (2012 Metric)", "500", "Bin A-12", "", "Power Supply, LED Driver", "1%", "1/8W"},
		core.FieldSpec{Name: "projectReference", Type: core.FieldText},
		core.FieldSpec{Name: "tolerance", Type: core.FieldText, Normalizer: NormalizeTolerance},
		core.FieldSpec{Name: "wattage", Type: core.FieldText, Normalizer: NormalizeRating, Aliases: []string{"power"}},
	)
}

func registerCapacitors() {
	register(core.KindCapacitor, "Capacitors", "Capacitor",
		[]string{"Capacitor", "1uF", "CL10A105KB8NNNC", "1uF 50V X7R", "0603 (1608 Metric)", "1000", "Bin D-12", "", "Power Supply, Filter", "50V", "Ceramic"},
		core.FieldSpec{Name: "projectReference", Type: core.FieldText},
		core.FieldSpec{Name: "voltageRating", Type: core.FieldText, Normalizer: NormalizeRating, Aliases: []string{"voltage"}},
		core.FieldSpec{Name: "type", Type: core.FieldText, Aliases: []string{"dielectric"}},
	)
}
