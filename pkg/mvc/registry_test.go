package mvc

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryLookupFirstRegisteredWins(t *testing.T) {
	first := Define("First", func() *testController { return &testController{} }).
		Handle("Ping", Route{Method: "get", Path: "/ping"}, func(*testController, *Args) (Result, error) {
			return Text("first"), nil
		}).Build()
	second := Define("Second", func() *testController { return &testController{} }).
		Handle("Ping", Route{Method: "GET", Path: "/ping"}, func(*testController, *Args) (Result, error) {
			return Text("second"), nil
		}).
		Handle("Pong", Route{Method: "GET", Path: "/pong"}, func(*testController, *Args) (Result, error) {
			return Text("pong"), nil
		}).Build()

	reg := NewRegistry(first, second)
	if err := reg.Validate(); err != nil {
		t.Fatalf("duplicate routes must only warn: %v", err)
	}
	for i := 0; i < 5; i++ {
		a, ok := reg.Lookup("GET", "/ping")
		if !ok {
			t.Fatalf("lookup failed")
		}
		if a.Controller != "First" {
			t.Fatalf("expected First to win, got %s", a)
		}
	}
	a, ok := reg.Lookup("GET", "/pong")
	if !ok || a.String() != "Second.Pong" {
		t.Fatalf("unexpected pong action: %v %v", a, ok)
	}
	if _, ok := reg.Lookup("POST", "/ping"); ok {
		t.Fatalf("method must match exactly")
	}
	if _, ok := reg.Lookup("GET", "/ping/"); ok {
		t.Fatalf("path must match exactly")
	}
	if reg.Len() != 3 {
		t.Fatalf("expected 3 actions, got %d", reg.Len())
	}
}

func TestRegistryLookupIndependentOfOrder(t *testing.T) {
	a := action("GET", "/a", "")
	b := action("POST", "/b", "")
	b.Name = "Other"
	for _, reg := range []*Registry{
		NewRegistry(ControllerDef{Name: "Test", Actions: []*Action{a, b}}),
		NewRegistry(ControllerDef{Name: "Test", Actions: []*Action{b, a}}),
	} {
		if got, _ := reg.Lookup("GET", "/a"); got != a {
			t.Fatalf("GET /a resolved to %v", got)
		}
		if got, _ := reg.Lookup("POST", "/b"); got != b {
			t.Fatalf("POST /b resolved to %v", got)
		}
	}
}

func TestRegistryValidateListsEveryViolation(t *testing.T) {
	getWithBody := action("GET", "/search", ContentJSON)
	getWithBody.Name = "Search"

	noRoute := action("", "", "")
	noRoute.Name = "Orphan"

	noHandler := action("POST", "/x", "")
	noHandler.Name = "Dangling"
	noHandler.Handler = nil

	private := action("GET", "/private", "")
	private.Name = "private"

	badType := action("POST", "/xml", "application/xml")
	badType.Name = "Xml"

	badDefault := action("GET", "/d", "", NewParam("n", KindInt).WithDefault("ten"))
	badDefault.Name = "Defaults"

	reg := NewRegistry(ControllerDef{
		Name:    "Test",
		Actions: []*Action{getWithBody, noRoute, noHandler, private, badType, badDefault},
	})
	err := reg.Validate()
	if err == nil {
		t.Fatalf("expected a configuration error")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if len(cerr.Violations) != 6 {
		t.Fatalf("expected 6 violations, got %d: %v", len(cerr.Violations), err)
	}
	for _, want := range []string{"Search", "Orphan", "Dangling", "private", "Xml", "Defaults"} {
		if !strings.Contains(err.Error(), "Test."+want+":") {
			t.Fatalf("violation for %s missing from %q", want, err.Error())
		}
	}
}

func TestRegistryValidateGetWithContentType(t *testing.T) {
	reg := NewRegistry(ControllerDef{Name: "Test", Actions: []*Action{action("GET", "/form", ContentForm)}})
	err := reg.Validate()
	if err == nil || !strings.Contains(err.Error(), "GET action cannot require") {
		t.Fatalf("expected GET + content type violation, got %v", err)
	}
}

func TestRegistryAmbiguousJSONIsOnlyAWarning(t *testing.T) {
	a := action("POST", "/rename", ContentJSON, NewParam("id", KindInt), NewParam("name", KindString))
	reg := NewRegistry(ControllerDef{Name: "Test", Actions: []*Action{a}})
	if err := reg.Validate(); err != nil {
		t.Fatalf("ambiguous body params must not fail validation: %v", err)
	}
}

func TestRegistryMissingFactory(t *testing.T) {
	a := action("GET", "/", "")
	a.New = nil
	reg := NewRegistry(ControllerDef{Name: "Test", Actions: []*Action{a}})
	if err := reg.Validate(); err == nil || !strings.Contains(err.Error(), "no factory") {
		t.Fatalf("expected missing factory violation, got %v", err)
	}
}
