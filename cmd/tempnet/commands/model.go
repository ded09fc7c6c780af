package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
)

// Model is the YAML description the CLI solves: variables, constraints
// over them, optional client specifications, and the plan-database
// entities (timelines, tokens, resources). This is deliberately a thin
// batch format; the full modelling language is an external
// collaborator the core only consumes definitions from.
type Model struct {
	Variables   []ModelVariable   `yaml:"variables"`
	Constraints []ModelConstraint `yaml:"constraints"`
	Specify     []ModelSpecify    `yaml:"specify"`
	Timelines   []ModelTimeline   `yaml:"timelines"`
	Tokens      []ModelToken      `yaml:"tokens"`
	Resources   []ModelResource   `yaml:"resources"`
}

type ModelVariable struct {
	Name string  `yaml:"name"`
	Type string  `yaml:"type"` // int | float | bool
	LB   float64 `yaml:"lb"`
	UB   float64 `yaml:"ub"`
}

type ModelConstraint struct {
	Name  string   `yaml:"name"`
	Scope []string `yaml:"scope"`
}

type ModelSpecify struct {
	Variable string  `yaml:"variable"`
	Value    float64 `yaml:"value"`
}

type ModelTimeline struct {
	Name string `yaml:"name"`
}

type ModelToken struct {
	Predicate  string `yaml:"predicate"`
	On         string `yaml:"on"` // timeline name
	Rejectable bool   `yaml:"rejectable"`
}

type ModelResource struct {
	Name         string             `yaml:"name"`
	CapacityLB   float64            `yaml:"capacityLB"`
	CapacityUB   float64            `yaml:"capacityUB"`
	Transactions []ModelTransaction `yaml:"transactions"`
}

type ModelTransaction struct {
	Time     string  `yaml:"time"` // variable name
	Quantity float64 `yaml:"quantity"`
}

// LoadModel reads and parses a model YAML file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model %s: %w", path, err)
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model %s: %w", path, err)
	}
	return &m, nil
}

// Build instantiates the model into pdb's engine and plan database,
// returning the named variables for result reporting.
func (m *Model) Build(pdb *plandb.PlanDatabase) (map[string]*engine.Variable, error) {
	eng := pdb.Engine()
	vars := make(map[string]*engine.Variable, len(m.Variables))

	for _, mv := range m.Variables {
		var dt *domain.DataType
		var base domain.Domain
		switch mv.Type {
		case "int", "":
			dt = domain.NewIntType(int(mv.LB), int(mv.UB))
			base = domain.NewIntInterval(int(mv.LB), int(mv.UB), false)
		case "float":
			dt = domain.NewFloatType(mv.LB, mv.UB, 0)
			base = domain.NewFloatInterval(mv.LB, mv.UB, false)
		case "bool":
			dt = domain.NewBoolType()
			base = domain.NewIntInterval(0, 1, false)
		default:
			return nil, fmt.Errorf("variable %q: unknown type %q", mv.Name, mv.Type)
		}
		vars[mv.Name] = eng.CreateVariable(dt, base, mv.Name, false, true, nil, 0)
	}

	timelines := make(map[string]*plandb.Object, len(m.Timelines))
	for _, tl := range m.Timelines {
		timelines[tl.Name] = pdb.CreateObject("Timeline", tl.Name, nil, true)
	}

	for _, mt := range m.Tokens {
		tok := pdb.CreateToken(mt.Predicate, mt.Rejectable)
		if mt.On != "" {
			tl, ok := timelines[mt.On]
			if !ok {
				return nil, fmt.Errorf("token %q: unknown timeline %q", mt.Predicate, mt.On)
			}
			if err := pdb.AddToken(tl, tok); err != nil {
				return nil, fmt.Errorf("token %q: %w", mt.Predicate, err)
			}
		}
	}

	for _, mr := range m.Resources {
		res := pdb.CreateResource(mr.Name, mr.CapacityLB, mr.CapacityUB, nil)
		for _, tx := range mr.Transactions {
			v, ok := vars[tx.Time]
			if !ok {
				return nil, fmt.Errorf("resource %q: unknown time variable %q", mr.Name, tx.Time)
			}
			if _, err := pdb.AddTransaction(res, v, tx.Quantity); err != nil {
				return nil, fmt.Errorf("resource %q: %w", mr.Name, err)
			}
		}
	}

	for _, mc := range m.Constraints {
		scope := make([]*engine.Variable, len(mc.Scope))
		for i, name := range mc.Scope {
			v, ok := vars[name]
			if !ok {
				return nil, fmt.Errorf("constraint %q: unknown variable %q", mc.Name, name)
			}
			scope[i] = v
		}
		if _, err := eng.CreateConstraint(mc.Name, scope); err != nil {
			return nil, fmt.Errorf("constraint %q: %w", mc.Name, err)
		}
	}

	for _, sp := range m.Specify {
		v, ok := vars[sp.Variable]
		if !ok {
			return nil, fmt.Errorf("specify: unknown variable %q", sp.Variable)
		}
		var val domain.Value
		if v.DataType().Kind() == domain.KindFloat {
			val = domain.FloatValue(sp.Value)
		} else {
			val = domain.IntValue(int64(sp.Value))
		}
		if err := v.Specify(val); err != nil {
			return nil, fmt.Errorf("specify %q: %w", sp.Variable, err)
		}
	}

	return vars, nil
}
