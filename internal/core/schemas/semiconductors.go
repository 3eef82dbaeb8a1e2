package schemas

import (
	"strings"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

func init() {
	registerTransistors()
	registerMOSFETs()
}

func registerTransistors() {
	register(core.KindTransistor, "Transistors", "Transistor",
		[]string{"Transistor", "2N2222", "2N2222ATFR", "NPN General Purpose", "TO-92", "250", "Bin F-5", "", "NPN", "800mA", "40V"},
		core.FieldSpec{Name: "type", Type: core.FieldEnum, EnumValues: []string{"NPN", "PNP"}, Normalizer: strings.ToUpper, Aliases: []string{"polarity"}},
		core.FieldSpec{Name: "collectorCurrent", Type: core.FieldText, Normalizer: NormalizeRating, Aliases: []string{"ic"}},
		core.FieldSpec{Name: "voltageRating", Type: core.FieldText, Normalizer: NormalizeRating, Aliases: []string{"vce"}},
	)
}

func registerMOSFETs() {
	register(core.KindMOSFET, "MOSFETs", "MOSFET",
		[]string{"MOSFET", "IRF540N", "IRF540NPBF", "N-Channel 100V 33A", "TO-220", "50", "Bin C-5", "Power switching applications", "M001", "100V", "33A"},
		core.FieldSpec{Name: "kitNumber", Type: core.FieldText, Aliases: []string{"kitSNo", "kit"}},
		core.FieldSpec{Name: "voltageRating", Type: core.FieldText, Normalizer: NormalizeRating, Aliases: []string{"vds"}},
		core.FieldSpec{Name: "currentRating", Type: core.FieldText, Normalizer: NormalizeRating, Aliases: []string{"drainCurrent"}},
	)
}
