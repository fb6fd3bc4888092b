package describe

import (
	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/errors"
)

// Static is a descriptor assembled from explicit member declarations, for
// native objects whose members are not discoverable by reflection.
type Static struct {
	members []webbridge.Member
	index   map[string]int
}

// NewStatic declares members in the given order. Duplicate names are rejected.
func NewStatic(members ...webbridge.Member) (*Static, error) {
	s := &Static{index: make(map[string]int, len(members))}
	for _, m := range members {
		if _, dup := s.index[m.Name]; dup {
			return nil, errors.New(errors.PhaseReflect, errors.KindRegistration).
				Detail("duplicate member %q", m.Name).
				Build()
		}
		if m.Kind != webbridge.KindProperty {
			m.Settable = false
		}
		s.index[m.Name] = len(s.members)
		s.members = append(s.members, m)
	}
	return s, nil
}

// Lookup returns the member declared under name.
func (s *Static) Lookup(name string) (webbridge.Member, bool) {
	i, ok := s.index[name]
	if !ok {
		return webbridge.Member{}, false
	}
	return s.members[i], true
}

// Members returns the members in declaration order.
func (s *Static) Members() []webbridge.Member {
	out := make([]webbridge.Member, len(s.members))
	copy(out, s.members)
	return out
}

// Property declares a property member.
func Property(name string, settable bool) webbridge.Member {
	return webbridge.Member{Name: name, Kind: webbridge.KindProperty, Settable: settable}
}

// Method declares a method member taking n arguments (negative for variadic).
func Method(name string, n int) webbridge.Member {
	return webbridge.Member{Name: name, Kind: webbridge.KindMethod, Type: webbridge.ArityTag(n)}
}

// Initializer declares the initializer member taking n arguments.
func Initializer(n int) webbridge.Member {
	return webbridge.Member{Kind: webbridge.KindInitializer, Type: webbridge.ArityTag(n)}
}
