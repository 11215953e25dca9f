package scenario

import (
	"strings"
	"testing"

	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/network"
)

const fullScenario = `
label: sti-coinfection
pars:
  n_agents: 2000
  start: 2000
  stop: 2030
  dt: 0.25
  rand_seed: 7
networks:
  - type: mf
    part_rate_m: 0.8
    part_rate_f: 0.7
  - type: maternal
diseases:
  - type: hiv
    beta: 0.05
    init_prev: 0.02
  - type: gonorrhea
    beta: 0.08
    init_prev: 0.03
demographics:
  births:
    rate: 25
  pregnancy:
    rate: 0.2
interventions:
  - type: art
    years: [2010, 2015]
    capacity: [50, 200]
connectors:
  - type: hiv_gonorrhea
    rel_sus_untreated: 3.0
`

func TestParseAndBuildFullScenario(t *testing.T) {
	sc, err := Parse([]byte(fullScenario))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Label != "sti-coinfection" {
		t.Errorf("label = %q", sc.Label)
	}
	if sc.Pars.DT != 0.25 || sc.Pars.NAgents != 2000 {
		t.Errorf("pars = %+v", sc.Pars)
	}

	s, err := sc.Build()
	if err != nil {
		t.Fatal(err)
	}
	if s.Pars.Label != "sti-coinfection" {
		t.Errorf("sim label = %q", s.Pars.Label)
	}
	if s.Pars.RandSeed != 7 {
		t.Errorf("seed = %d", s.Pars.RandSeed)
	}
	if len(s.Networks) != 2 || len(s.Diseases) != 2 {
		t.Fatalf("%d networks, %d diseases", len(s.Networks), len(s.Diseases))
	}
	if len(s.Demographics) != 2 || len(s.Interventions) != 1 || len(s.Connectors) != 1 {
		t.Fatalf("demographics/interventions/connectors = %d/%d/%d",
			len(s.Demographics), len(s.Interventions), len(s.Connectors))
	}

	mf, ok := s.Networks[0].(*network.MFNet)
	if !ok {
		t.Fatalf("first network is %T, want *network.MFNet", s.Networks[0])
	}
	if mf.PartRateM != 0.8 || mf.PartRateF != 0.7 {
		t.Errorf("participation rates = %v/%v", mf.PartRateM, mf.PartRateF)
	}

	hiv, ok := s.Diseases[0].(*disease.HIV)
	if !ok {
		t.Fatalf("first disease is %T, want *disease.HIV", s.Diseases[0])
	}
	if hiv.Beta != 0.05 || hiv.InitPrev.P != 0.02 {
		t.Errorf("hiv beta/init_prev = %v/%v", hiv.Beta, hiv.InitPrev.P)
	}
}

func TestBuildKeepsModuleDefaults(t *testing.T) {
	sc, err := Parse([]byte("diseases:\n  - type: sir\n"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := sc.Build()
	if err != nil {
		t.Fatal(err)
	}
	sir := s.Diseases[0].(*disease.SIR)
	def := disease.NewSIR()
	if sir.Beta != def.Beta || sir.InitPrev.P != def.InitPrev.P {
		t.Errorf("zero-valued fields overrode defaults: beta %v, init_prev %v", sir.Beta, sir.InitPrev.P)
	}
	if s.Pars.NAgents != 10000 {
		t.Errorf("missing pars block did not fall back to defaults: %+v", s.Pars)
	}
}

func TestBuildResolvesDistSpecs(t *testing.T) {
	sc, err := Parse([]byte(`
diseases:
  - type: sir
    dur_inf: {dist: lognormal, mean: 20, stdev: 4}
networks:
  - type: mf
    debut: 18
`))
	if err != nil {
		t.Fatal(err)
	}
	s, err := sc.Build()
	if err != nil {
		t.Fatal(err)
	}
	if s.Diseases[0].(*disease.SIR).DurInf == nil {
		t.Error("dur_inf spec not built")
	}
	if s.Networks[0].(*network.MFNet).Debut == nil {
		t.Error("debut spec not built")
	}
}

func TestBuildCholeraAndEbolaParams(t *testing.T) {
	sc, err := Parse([]byte(`
diseases:
  - type: cholera
    beta_env: 0.4
    half_sat_rate: 1e6
    shedding_rate: 500
    decay_rate: 0.05
    p_symp: 0.3
    asymp_trans: 0.6
  - type: ebola
    p_sev: 0.7
    p_safe_bury: 0.25
    sev_factor: 1.5
    unburied_factor: 2.5
`))
	if err != nil {
		t.Fatal(err)
	}
	s, err := sc.Build()
	if err != nil {
		t.Fatal(err)
	}

	ch := s.Diseases[0].(*disease.Cholera)
	if ch.BetaEnv != 0.4 || ch.HalfSatRate != 1e6 || ch.SheddingRate != 500 || ch.DecayRate != 0.05 {
		t.Errorf("cholera reservoir params = %v/%v/%v/%v",
			ch.BetaEnv, ch.HalfSatRate, ch.SheddingRate, ch.DecayRate)
	}
	if ch.PSymp.P != 0.3 || ch.AsympTrans != 0.6 {
		t.Errorf("cholera symptom params = %v/%v", ch.PSymp.P, ch.AsympTrans)
	}

	eb := s.Diseases[1].(*disease.Ebola)
	if eb.PSev.P != 0.7 || eb.PSafeBury.P != 0.25 {
		t.Errorf("ebola severity/burial probs = %v/%v", eb.PSev.P, eb.PSafeBury.P)
	}
	if eb.SevFactor != 1.5 || eb.UnburiedFactor != 2.5 {
		t.Errorf("ebola transmission factors = %v/%v", eb.SevFactor, eb.UnburiedFactor)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want string
	}{
		{"unknown disease", "diseases:\n  - type: measles\n", "unknown disease type"},
		{"unknown network", "networks:\n  - type: lattice\n", "unknown network type"},
		{"duplicate disease", "diseases:\n  - type: sir\n  - type: sir\n", "duplicate disease"},
		{"art without hiv", "interventions:\n  - type: art\n    years: [2010]\n    capacity: [10]\n", "requires an hiv"},
		{"vax without product", "diseases:\n  - type: sir\ninterventions:\n  - type: routine_vax\n    disease: sir\n", "requires a product"},
		{"vax unknown target", "interventions:\n  - type: routine_vax\n    disease: sir\n    product: {efficacy: 0.9}\n", "unknown disease"},
		{"connector without pair", "connectors:\n  - type: hiv_gonorrhea\n", "required"},
	}
	for _, c := range cases {
		sc, err := Parse([]byte(c.yml))
		if err != nil {
			t.Fatalf("%s: parse: %v", c.name, err)
		}
		_, err = sc.Build()
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: err = %v, want substring %q", c.name, err, c.want)
		}
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("label: [unclosed")); err == nil {
		t.Error("malformed yaml accepted")
	}
}
