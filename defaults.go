package spindecay

// Parameter names consumed by the models.
const (
	ParamCoupling           = "coupling"
	ParamT2                 = "T2"
	ParamAverageRepumpTime  = "average_repump_time"
	ParamRepumpTimeJitter   = "repump_time_jitter"
	ParamRepumpTimeOffset   = "repump_time_offset"
	ParamPFlip              = "pflip"
	ParamMWInfidelity       = "mw_infidelity"
	ParamInitInfidelity     = "init_infidelity"
	ParamEntanglingAttempts = "entangling_attempts"
	ParamRepetitions        = "repetitions"
	ParamLarmorPeriod       = "larmor_period"
	ParamLarmorOrder        = "larmor_order"
	ParamT                  = "T"
	ParamDoCarbonPi         = "do_carbon_pi"
)

/*
DefaultParameters returns the reference configuration: a 13C spin with 80 kHz
hyperfine coupling next to an NV centre at B = 414 G. Every call returns a new
tree, so engines never share parameter state.
*/
func DefaultParameters() ParameterSet {
	return ParameterSet{
		"carbon_params": ParameterSet{
			ParamCoupling: 80e3,  // Hz
			ParamT2:       60e-3, // s, not used by the models yet
		},
		"nv_params": ParameterSet{
			ParamAverageRepumpTime: 220e-9, // s
			ParamRepumpTimeJitter:  0.0,    // s
			ParamRepumpTimeOffset:  0.0,    // s
			ParamPFlip:             0.5,
			ParamMWInfidelity:      0.008,
			ParamInitInfidelity:    0.001,
		},
		"simulation_params": ParameterSet{
			ParamEntanglingAttempts: 2000,
			ParamRepetitions:        1000,
			ParamLarmorPeriod:       2.256e-6, // s
			ParamLarmorOrder:        1,
			ParamT:                  2.5e-6, // s
			ParamDoCarbonPi:         false,
		},
	}
}
