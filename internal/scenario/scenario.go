// Package scenario loads simulation scenarios from YAML files and builds
// runnable sims from them. A scenario is the user-facing parameter bag:
// core pars plus disease, network, demographic, intervention, and connector
// blocks. Zero-valued fields keep the module defaults.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/episim-dev/episim/internal/connector"
	"github.com/episim-dev/episim/internal/demographics"
	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/interventions"
	"github.com/episim-dev/episim/internal/network"
	"github.com/episim-dev/episim/internal/params"
	"github.com/episim-dev/episim/internal/product"
	"github.com/episim-dev/episim/internal/sim"
)

// Scenario mirrors the YAML scenario file.
type Scenario struct {
	Label string      `yaml:"label"`
	Pars  params.Pars `yaml:"pars"`

	// AgeStructure is the path to a population age-structure CSV
	// (columns age,value); optional.
	AgeStructure string `yaml:"age_structure"`

	Networks      []NetworkSpec      `yaml:"networks"`
	Demographics  *DemographicsSpec  `yaml:"demographics"`
	Diseases      []DiseaseSpec      `yaml:"diseases"`
	Interventions []InterventionSpec `yaml:"interventions"`
	Connectors    []ConnectorSpec    `yaml:"connectors"`
}

// NetworkSpec selects and parameterizes one contact network.
type NetworkSpec struct {
	Type      string     `yaml:"type"` // random | mf | maternal
	NContacts float64    `yaml:"n_contacts"`
	Beta      float64    `yaml:"beta"`
	PartRateM float64    `yaml:"part_rate_m"`
	PartRateF float64    `yaml:"part_rate_f"`
	Debut     *dist.Spec `yaml:"debut"`
	Duration  *dist.Spec `yaml:"duration"`
}

// DemographicsSpec parameterizes the vital-dynamics modules.
type DemographicsSpec struct {
	Births    *BirthsSpec    `yaml:"births"`
	Deaths    *DeathsSpec    `yaml:"deaths"`
	Pregnancy *PregnancySpec `yaml:"pregnancy"`
}

// BirthsSpec sets the crude birth rate per 1000 per year.
type BirthsSpec struct {
	Rate float64 `yaml:"rate"`
}

// DeathsSpec sets a crude death rate or an age/sex rate table path.
type DeathsSpec struct {
	Rate  float64 `yaml:"rate"`
	Table string  `yaml:"table"`
}

// PregnancySpec parameterizes the pregnancy module. Fertility is an
// age-specific fertility CSV path (columns age,rate); optional.
type PregnancySpec struct {
	Rate          float64 `yaml:"rate"`
	Fertility     string  `yaml:"fertility"`
	MinAge        float64 `yaml:"min_age"`
	MaxAge        float64 `yaml:"max_age"`
	DurPregnancy  float64 `yaml:"dur_pregnancy"`
	DurPostpartum float64 `yaml:"dur_postpartum"`
}

// DiseaseSpec selects and parameterizes one disease module. Fields not
// meaningful for the selected type are ignored; zero values keep defaults.
type DiseaseSpec struct {
	Type     string  `yaml:"type"` // sir | sis | hiv | gonorrhea | cholera | ebola
	Beta     float64 `yaml:"beta"`
	InitPrev float64 `yaml:"init_prev"`

	DurInf *dist.Spec `yaml:"dur_inf"`
	PDeath float64    `yaml:"p_death"`

	// hiv
	CD4Min            float64 `yaml:"cd4_min"`
	CD4Max            float64 `yaml:"cd4_max"`
	CD4Rate           float64 `yaml:"cd4_rate"`
	ARTTransReduction float64 `yaml:"art_trans_reduction"`

	// gonorrhea
	DurInfDays float64 `yaml:"dur_inf_days"`

	// cholera
	PSymp        float64 `yaml:"p_symp"`
	AsympTrans   float64 `yaml:"asymp_trans"`
	BetaEnv      float64 `yaml:"beta_env"`
	HalfSatRate  float64 `yaml:"half_sat_rate"`
	SheddingRate float64 `yaml:"shedding_rate"`
	DecayRate    float64 `yaml:"decay_rate"`

	// ebola
	PSev           float64 `yaml:"p_sev"`
	PSafeBury      float64 `yaml:"p_safe_bury"`
	SevFactor      float64 `yaml:"sev_factor"`
	UnburiedFactor float64 `yaml:"unburied_factor"`
}

// InterventionSpec selects and parameterizes one intervention.
type InterventionSpec struct {
	Type    string  `yaml:"type"` // routine_vax | campaign_vax | art
	Disease string  `yaml:"disease"`
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	Prob    float64 `yaml:"prob"`
	AgeMin  float64 `yaml:"age_min"`
	AgeMax  float64 `yaml:"age_max"`

	Coverage float64   `yaml:"coverage"`
	Years    []float64 `yaml:"years"`
	Capacity []int     `yaml:"capacity"`

	Product *ProductSpec `yaml:"product"`
}

// ProductSpec parameterizes a vaccine product.
type ProductSpec struct {
	Efficacy float64 `yaml:"efficacy"`
	Mode     string  `yaml:"mode"`
}

// ConnectorSpec selects a disease coupler.
type ConnectorSpec struct {
	Type            string  `yaml:"type"` // hiv_gonorrhea
	RelSusUntreated float64 `yaml:"rel_sus_untreated"`
	RelSusOnART     float64 `yaml:"rel_sus_on_art"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	return &sc, nil
}

// Build assembles an uninitialized Sim from the scenario. The caller runs
// Init/Run; Build only wires modules and resolves cross-references.
func (sc *Scenario) Build() (*sim.Sim, error) {
	pars := params.Defaults().Merge(sc.Pars)
	if sc.Label != "" {
		pars.Label = sc.Label
	}
	s := sim.New(pars)

	if sc.AgeStructure != "" {
		table, err := demographics.ReadRateTable(sc.AgeStructure, "value")
		if err != nil {
			return nil, err
		}
		s.InitialAges = table
	}

	var maternal *network.MaternalNet
	for _, ns := range sc.Networks {
		net, err := buildNetwork(ns)
		if err != nil {
			return nil, err
		}
		if m, ok := net.(*network.MaternalNet); ok {
			maternal = m
		}
		s.Networks = append(s.Networks, net)
	}

	diseasesByName := make(map[string]disease.Transmissible)
	for _, ds := range sc.Diseases {
		d, err := buildDisease(ds)
		if err != nil {
			return nil, err
		}
		if _, dup := diseasesByName[d.Name()]; dup {
			return nil, fmt.Errorf("scenario: duplicate disease %q", d.Name())
		}
		diseasesByName[d.Name()] = d
		s.Diseases = append(s.Diseases, d)
	}

	if sc.Demographics != nil {
		mods, err := buildDemographics(sc.Demographics, maternal)
		if err != nil {
			return nil, err
		}
		s.Demographics = mods
	}

	for _, is := range sc.Interventions {
		intv, err := buildIntervention(is, diseasesByName)
		if err != nil {
			return nil, err
		}
		s.Interventions = append(s.Interventions, intv)
	}

	for _, cs := range sc.Connectors {
		c, err := buildConnector(cs, diseasesByName)
		if err != nil {
			return nil, err
		}
		s.Connectors = append(s.Connectors, c)
	}

	return s, nil
}

func buildNetwork(ns NetworkSpec) (network.Network, error) {
	switch ns.Type {
	case "random":
		n := network.NewRandomNet(ns.NContacts)
		if n.NContacts <= 0 {
			n.NContacts = 10
		}
		if ns.Beta > 0 {
			n.Beta = ns.Beta
		}
		return n, nil
	case "mf":
		n := network.NewMFNet()
		if ns.PartRateM > 0 {
			n.PartRateM = ns.PartRateM
		}
		if ns.PartRateF > 0 {
			n.PartRateF = ns.PartRateF
		}
		if ns.Beta > 0 {
			n.Beta = ns.Beta
		}
		if ns.Debut != nil {
			d, err := ns.Debut.Build()
			if err != nil {
				return nil, err
			}
			n.Debut = d
		}
		if ns.Duration != nil {
			d, err := ns.Duration.Build()
			if err != nil {
				return nil, err
			}
			n.Duration = d
		}
		return n, nil
	case "maternal":
		return network.NewMaternalNet(), nil
	default:
		return nil, fmt.Errorf("scenario: unknown network type %q", ns.Type)
	}
}

func buildDisease(ds DiseaseSpec) (disease.Transmissible, error) {
	durInf, err := buildOptionalDist(ds.DurInf)
	if err != nil {
		return nil, err
	}

	switch ds.Type {
	case "sir":
		d := disease.NewSIR()
		applyCommon(&d.Infection, ds)
		if durInf != nil {
			d.DurInf = durInf
		}
		if ds.PDeath > 0 {
			d.PDeath = dist.Bernoulli{P: ds.PDeath}
		}
		return d, nil
	case "sis":
		d := disease.NewSIS()
		applyCommon(&d.Infection, ds)
		if durInf != nil {
			d.DurInf = durInf
		}
		return d, nil
	case "hiv":
		d := disease.NewHIV()
		applyCommon(&d.Infection, ds)
		if ds.CD4Min > 0 {
			d.CD4Min = ds.CD4Min
		}
		if ds.CD4Max > 0 {
			d.CD4Max = ds.CD4Max
		}
		if ds.CD4Rate > 0 {
			d.CD4Rate = ds.CD4Rate
		}
		if ds.ARTTransReduction > 0 {
			d.ARTTransReduction = ds.ARTTransReduction
		}
		return d, nil
	case "gonorrhea":
		d := disease.NewGonorrhea()
		applyCommon(&d.Infection, ds)
		if ds.DurInfDays > 0 {
			d.DurInfDays = ds.DurInfDays
		}
		if ds.PDeath > 0 {
			d.PDeath = dist.Bernoulli{P: ds.PDeath}
		}
		return d, nil
	case "cholera":
		d := disease.NewCholera()
		applyCommon(&d.Infection, ds)
		if ds.PDeath > 0 {
			d.PDeath = dist.Bernoulli{P: ds.PDeath}
		}
		if ds.PSymp > 0 {
			d.PSymp = dist.Bernoulli{P: ds.PSymp}
		}
		if ds.AsympTrans > 0 {
			d.AsympTrans = ds.AsympTrans
		}
		if ds.BetaEnv > 0 {
			d.BetaEnv = ds.BetaEnv
		}
		if ds.HalfSatRate > 0 {
			d.HalfSatRate = ds.HalfSatRate
		}
		if ds.SheddingRate > 0 {
			d.SheddingRate = ds.SheddingRate
		}
		if ds.DecayRate > 0 {
			d.DecayRate = ds.DecayRate
		}
		return d, nil
	case "ebola":
		d := disease.NewEbola()
		applyCommon(&d.Infection, ds)
		if ds.PDeath > 0 {
			d.PDeath = dist.Bernoulli{P: ds.PDeath}
		}
		if ds.PSev > 0 {
			d.PSev = dist.Bernoulli{P: ds.PSev}
		}
		if ds.PSafeBury > 0 {
			d.PSafeBury = dist.Bernoulli{P: ds.PSafeBury}
		}
		if ds.SevFactor > 0 {
			d.SevFactor = ds.SevFactor
		}
		if ds.UnburiedFactor > 0 {
			d.UnburiedFactor = ds.UnburiedFactor
		}
		return d, nil
	default:
		return nil, fmt.Errorf("scenario: unknown disease type %q", ds.Type)
	}
}

func applyCommon(inf *disease.Infection, ds DiseaseSpec) {
	if ds.Beta > 0 {
		inf.Beta = ds.Beta
	}
	if ds.InitPrev > 0 {
		inf.InitPrev = dist.Bernoulli{P: ds.InitPrev}
	}
}

func buildOptionalDist(spec *dist.Spec) (dist.Dist, error) {
	if spec == nil {
		return nil, nil
	}
	return spec.Build()
}

func buildDemographics(ds *DemographicsSpec, maternal *network.MaternalNet) ([]demographics.Module, error) {
	var mods []demographics.Module
	if ds.Births != nil {
		mods = append(mods, demographics.NewBirths(ds.Births.Rate))
	}
	if ds.Deaths != nil {
		d := demographics.NewDeaths(ds.Deaths.Rate)
		if ds.Deaths.Table != "" {
			table, err := demographics.ReadRateTable(ds.Deaths.Table, "male", "female")
			if err != nil {
				return nil, err
			}
			d.Table = table
		}
		mods = append(mods, d)
	}
	if ds.Pregnancy != nil {
		p := demographics.NewPregnancy()
		if ds.Pregnancy.Rate > 0 {
			p.Rate = ds.Pregnancy.Rate
		}
		if ds.Pregnancy.Fertility != "" {
			table, err := demographics.ReadRateTable(ds.Pregnancy.Fertility, "rate")
			if err != nil {
				return nil, err
			}
			p.Fertility = table
		}
		if ds.Pregnancy.MinAge > 0 {
			p.MinAge = ds.Pregnancy.MinAge
		}
		if ds.Pregnancy.MaxAge > 0 {
			p.MaxAge = ds.Pregnancy.MaxAge
		}
		if ds.Pregnancy.DurPregnancy > 0 {
			p.DurPregnancy = ds.Pregnancy.DurPregnancy
		}
		if ds.Pregnancy.DurPostpartum > 0 {
			p.DurPostpartum = ds.Pregnancy.DurPostpartum
		}
		p.Maternal = maternal
		mods = append(mods, p)
	}
	return mods, nil
}

func buildIntervention(is InterventionSpec, diseases map[string]disease.Transmissible) (interventions.Intervention, error) {
	switch is.Type {
	case "routine_vax", "campaign_vax":
		target, ok := diseases[is.Disease]
		if !ok {
			return nil, fmt.Errorf("scenario: %s targets unknown disease %q", is.Type, is.Disease)
		}
		if is.Product == nil {
			return nil, fmt.Errorf("scenario: %s requires a product", is.Type)
		}
		prod := &product.Vaccine{Efficacy: is.Product.Efficacy, Mode: is.Product.Mode}
		if is.Type == "campaign_vax" {
			return interventions.NewCampaignVax(is.Years, is.Coverage, prod, target), nil
		}
		rv := interventions.NewRoutineVax(is.Start, is.Prob, prod, target)
		rv.EndYear = is.End
		rv.AgeMin = is.AgeMin
		rv.AgeMax = is.AgeMax
		return rv, nil
	case "art":
		hiv, ok := diseases["hiv"].(*disease.HIV)
		if !ok {
			return nil, fmt.Errorf("scenario: art requires an hiv disease block")
		}
		return interventions.NewART(is.Years, is.Capacity, hiv), nil
	default:
		return nil, fmt.Errorf("scenario: unknown intervention type %q", is.Type)
	}
}

func buildConnector(cs ConnectorSpec, diseases map[string]disease.Transmissible) (connector.Connector, error) {
	switch cs.Type {
	case "hiv_gonorrhea":
		hiv, _ := diseases["hiv"].(*disease.HIV)
		gon, _ := diseases["gonorrhea"].(*disease.Gonorrhea)
		c, err := connector.NewHIVGonorrhea(hiv, gon)
		if err != nil {
			return nil, err
		}
		if cs.RelSusUntreated > 0 {
			c.RelSusUntreated = cs.RelSusUntreated
		}
		if cs.RelSusOnART > 0 {
			c.RelSusOnART = cs.RelSusOnART
		}
		return c, nil
	default:
		return nil, fmt.Errorf("scenario: unknown connector type %q", cs.Type)
	}
}
