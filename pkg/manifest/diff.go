package manifest

import (
	"fmt"
	"reflect"
	"sort"
)

// Change is one difference between two manifests
type Change struct {
	Kind   string // added, removed or changed
	Key    string
	Detail string
}

func (c Change) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s %s", c.Kind, c.Key)
	}
	return fmt.Sprintf("%s %s: %s", c.Kind, c.Key, c.Detail)
}

// Diff lists what must change for current to match desired
func Diff(current, desired *Manifest) []Change {
	var changes []Change

	have := make(map[string]Route, len(current.Routes))
	for _, r := range current.Routes {
		have[r.Key()] = r
	}
	want := make(map[string]Route, len(desired.Routes))
	for _, r := range desired.Routes {
		want[r.Key()] = r
	}

	for key, r := range want {
		old, ok := have[key]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: "added", Key: key})
		case !reflect.DeepEqual(normalizeAuth(old.Auth), normalizeAuth(r.Auth)):
			changes = append(changes, Change{Kind: "changed", Key: key, Detail: "auth " + describeAuth(old.Auth) + " -> " + describeAuth(r.Auth)})
		case old.Handler != r.Handler:
			changes = append(changes, Change{Kind: "changed", Key: key, Detail: "handler " + old.Handler + " -> " + r.Handler})
		}
	}
	for key := range have {
		if _, ok := want[key]; !ok {
			changes = append(changes, Change{Kind: "removed", Key: key})
		}
	}

	haveEvents := make(map[Event]bool, len(current.Events))
	for _, e := range current.Events {
		haveEvents[e] = true
	}
	wantEvents := make(map[Event]bool, len(desired.Events))
	for _, e := range desired.Events {
		wantEvents[e] = true
		if !haveEvents[e] {
			changes = append(changes, Change{Kind: "added", Key: "event " + e.Event, Detail: e.Handler})
		}
	}
	for _, e := range current.Events {
		if !wantEvents[e] {
			changes = append(changes, Change{Kind: "removed", Key: "event " + e.Event, Detail: e.Handler})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Key == changes[j].Key {
			return changes[i].Kind < changes[j].Kind
		}
		return changes[i].Key < changes[j].Key
	})
	return changes
}

func normalizeAuth(a Auth) Auth {
	if a.Type == "" {
		a.Type = AuthNone
	}
	if len(a.Roles) == 0 {
		a.Roles = nil
	}
	if a.Optional != nil && !*a.Optional {
		a.Optional = nil
	}
	return a
}

func describeAuth(a Auth) string {
	a = normalizeAuth(a)
	s := a.Type
	if a.Optional != nil {
		s += " (optional)"
	}
	if len(a.Roles) > 0 {
		s += fmt.Sprintf(" roles=%v", a.Roles)
	}
	return s
}
