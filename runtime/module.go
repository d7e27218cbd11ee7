package runtime

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/errors"
)

const (
	initializerSuffix = "ModuleInitializer"
	capabilitySuffix  = "Module"
)

// Module is a Lean module's initializer.
//
// Initialize has the shape of a generated initialize_<Module> function: it
// takes the builtin flag and an owned world token and returns an owned IO
// result.
type Module interface {
	Name() string
	Initialize(a abi.ABI, builtin uint8, world abi.Object) abi.Object
}

// Provider is implemented by modules that initialize more than one
// capability, such as a ModuleSet.
type Provider interface {
	Capabilities() []string
}

type moduleFunc struct {
	name string
	fn   func(a abi.ABI, builtin uint8, world abi.Object) abi.Object
}

func (m moduleFunc) Name() string { return m.name }

func (m moduleFunc) Initialize(a abi.ABI, builtin uint8, world abi.Object) abi.Object {
	return m.fn(a, builtin, world)
}

// ModuleFunc adapts an initializer function to Module.
func ModuleFunc(name string, fn func(a abi.ABI, builtin uint8, world abi.Object) abi.Object) Module {
	return moduleFunc{name: name, fn: fn}
}

type noModules struct{}

func (noModules) Name() string { return "NoModules" }

func (noModules) Initialize(a abi.ABI, _ uint8, _ abi.Object) abi.Object {
	return a.IOResultMkOk(abi.Unit)
}

func (noModules) Capabilities() []string { return nil }

// NoModules initializes nothing and always succeeds.
var NoModules Module = noModules{}

// CapabilityName derives the capability of a module initializer from its
// name: "MapArrayModuleInitializer" provides "MapArrayModule".
func CapabilityName(moduleName string) (string, error) {
	base, ok := strings.CutSuffix(moduleName, initializerSuffix)
	if !ok {
		return "", errors.New(errors.PhaseCompose, errors.KindNaming).
			Name(moduleName).
			Detail("module name must end in %q", initializerSuffix).
			Build()
	}
	if base == "" {
		return "", errors.New(errors.PhaseCompose, errors.KindNaming).
			Name(moduleName).
			Detail("module name must contain a Lean module name before %q", initializerSuffix).
			Build()
	}
	return base + capabilitySuffix, nil
}

// CapabilitiesOf returns what m initializes. Modules that do not implement
// Provider are named after their initializer; names that do not follow the
// convention provide nothing.
func CapabilitiesOf(m Module) []string {
	if p, ok := m.(Provider); ok {
		return p.Capabilities()
	}
	c, err := CapabilityName(m.Name())
	if err != nil {
		return nil
	}
	return []string{c}
}

// Entry registers one module in a ModuleSet. An empty Capability is derived
// from the module name with CapabilityName.
type Entry struct {
	Module     Module
	Capability string
}

// ModuleSet initializes its entries in registration order and stops at the
// first failure.
type ModuleSet struct {
	name    string
	entries []Entry
	caps    []string
}

var _ Provider = (*ModuleSet)(nil)

// Combine builds a ModuleSet. It fails if no entries are given, if a module
// name or capability appears twice, or if a capability cannot be derived.
func Combine(name string, entries ...Entry) (*ModuleSet, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.PhaseCompose, errors.KindEmpty).
			Name(name).
			Detail("at least one module initializer and capability is required, otherwise use NoModules").
			Build()
	}

	set := &ModuleSet{name: name, entries: make([]Entry, 0, len(entries))}
	modules := make(map[string]struct{}, len(entries))
	caps := make(map[string]struct{}, len(entries))

	addCap := func(c string) error {
		if _, dup := caps[c]; dup {
			return errors.Duplicate("capability", c)
		}
		caps[c] = struct{}{}
		set.caps = append(set.caps, c)
		return nil
	}

	for _, e := range entries {
		if e.Module == nil {
			return nil, errors.InvalidInput(errors.PhaseCompose, "nil module in module set "+name)
		}
		modName := e.Module.Name()
		if _, dup := modules[modName]; dup {
			return nil, errors.Duplicate("module initializer", modName)
		}
		modules[modName] = struct{}{}

		switch {
		case e.Capability != "":
			if err := addCap(e.Capability); err != nil {
				return nil, err
			}
		default:
			if _, ok := e.Module.(Provider); !ok {
				c, err := CapabilityName(modName)
				if err != nil {
					return nil, err
				}
				e.Capability = c
				if err := addCap(c); err != nil {
					return nil, err
				}
			}
		}

		if p, ok := e.Module.(Provider); ok {
			for _, c := range p.Capabilities() {
				if err := addCap(c); err != nil {
					return nil, err
				}
			}
		}
		set.entries = append(set.entries, e)
	}
	return set, nil
}

// MustCombine is like Combine but panics on error. It suits package-level
// module set declarations.
func MustCombine(name string, entries ...Entry) *ModuleSet {
	set, err := Combine(name, entries...)
	if err != nil {
		panic(err)
	}
	return set
}

// Name returns the set's name.
func (s *ModuleSet) Name() string { return s.name }

// Capabilities returns every capability the set initializes, nested sets
// included, in registration order.
func (s *ModuleSet) Capabilities() []string {
	return append([]string(nil), s.caps...)
}

// Modules returns the names of the direct entries in initialization order.
func (s *ModuleSet) Modules() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Module.Name()
	}
	return names
}

// Initialize runs every entry in order. Successful results are released; the
// first failed result is returned as is and the remaining entries never run.
func (s *ModuleSet) Initialize(a abi.ABI, builtin uint8, world abi.Object) abi.Object {
	log := Logger()
	for i, e := range s.entries {
		log.Debug("initializing module",
			zap.String("set", s.name),
			zap.String("module", e.Module.Name()),
			zap.Int("order", i))

		res := e.Module.Initialize(a, builtin, world)
		if !a.IOResultIsOk(res) {
			log.Debug("module initialization failed",
				zap.String("set", s.name),
				zap.String("module", e.Module.Name()))
			return res
		}
		a.Dec(res)
	}
	return a.IOResultMkOk(abi.Unit)
}
